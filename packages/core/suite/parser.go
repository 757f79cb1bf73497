package suite

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("invalid suite")

// ValidationError reports a file-format violation at a specific step.
type ValidationError struct {
	File  string
	Phase Phase
	Index int
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
	return fmt.Sprintf("%s: %s[%d]: %s", e.File, e.Phase, e.Index, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ParseOptions controls how strictly suite files are validated.
type ParseOptions struct {
	// LenientActions allows several action keys on one step; the first in
	// ActionPrecedence wins and a warning is recorded on the suite.
	LenientActions bool
}

// stringList accepts either a single scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = stringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

type rawSettings struct {
	Root      string         `yaml:"root"`
	Vars      map[string]any `yaml:"vars"`
	Headers   map[string]any `yaml:"headers"`
	DependsOn stringList     `yaml:"depends_on"`
}

func (r rawSettings) settings() *Settings {
	s := &Settings{Root: r.Root, Vars: r.Vars, Headers: r.Headers}
	if s.IsZero() {
		return nil
	}
	return s
}

type rawStep struct {
	rawSettings `yaml:",inline"`

	Name    string            `yaml:"name"`
	Post    *string           `yaml:"post"`
	Get     *string           `yaml:"get"`
	Put     *string           `yaml:"put"`
	Patch   *string           `yaml:"patch"`
	Delete  *string           `yaml:"delete"`
	Body    any               `yaml:"body"`
	Eval    stringList        `yaml:"eval"`
	JSON    string            `yaml:"json"`
	Capture map[string]string `yaml:"capture"`
	Log     string            `yaml:"log"`
	Status  int               `yaml:"status"`
	Check   stringList        `yaml:"check"`
	Schema  any               `yaml:"schema"`
}

func (r *rawStep) actions() map[ActionKind]*string {
	return map[ActionKind]*string{
		ActionCreate:        r.Post,
		ActionRead:          r.Get,
		ActionUpdate:        r.Put,
		ActionPartialUpdate: r.Patch,
		ActionDelete:        r.Delete,
	}
}

type rawSuite struct {
	rawSettings `yaml:",inline"`

	BeforeAll []*rawStep `yaml:"beforeAll"`
	Steps     []*rawStep `yaml:"steps"`
	AfterAll  []*rawStep `yaml:"afterAll"`
	Cleanup   []*rawStep `yaml:"cleanup"`
}

// ParseFile reads and parses the suite at path. id is its identity relative
// to the run root.
func ParseFile(id, path string, opts ParseOptions) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}
	s, err := Parse(id, data, opts)
	if err != nil {
		return nil, err
	}
	s.Path = path
	return s, nil
}

// Parse decodes a suite document.
func Parse(id string, data []byte, opts ParseOptions) (*Suite, error) {
	var raw rawSuite
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	s := &Suite{
		ID:        id,
		DependsOn: raw.DependsOn,
		Settings:  raw.settings(),
	}

	phases := []struct {
		phase Phase
		raw   []*rawStep
		dst   *[]*Step
	}{
		{PhaseSetup, raw.BeforeAll, &s.BeforeAll},
		{PhaseMain, raw.Steps, &s.Steps},
		{PhaseTeardown, raw.AfterAll, &s.AfterAll},
		{PhaseCleanup, raw.Cleanup, &s.Cleanup},
	}
	for _, p := range phases {
		for i, rs := range p.raw {
			if rs == nil {
				return nil, &ValidationError{File: id, Phase: p.phase, Index: i, Msg: "empty step"}
			}
			step, err := buildStep(s, p.phase, i, rs, opts)
			if err != nil {
				return nil, err
			}
			*p.dst = append(*p.dst, step)
		}
	}

	return s, nil
}

func buildStep(s *Suite, phase Phase, index int, rs *rawStep, opts ParseOptions) (*Step, error) {
	step := &Step{
		Name:     rs.Name,
		Body:     rs.Body,
		Eval:     rs.Eval,
		JSON:     rs.JSON,
		Capture:  rs.Capture,
		Log:      rs.Log,
		Status:   rs.Status,
		Check:    rs.Check,
		Schema:   rs.Schema,
		Settings: rs.settings(),
	}

	declared := rs.actions()
	var present []string
	for _, kind := range ActionPrecedence {
		p := declared[kind]
		if p == nil {
			continue
		}
		present = append(present, kind.key())
		if step.Action.IsNone() {
			step.Action = Action{Kind: kind, Path: *p}
		}
	}

	if len(present) > 1 {
		msg := fmt.Sprintf("step declares %d actions (%s)", len(present), strings.Join(present, ", "))
		if !opts.LenientActions {
			return nil, &ValidationError{File: s.ID, Phase: phase, Index: index, Msg: msg}
		}
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s[%d]: %s, using %s", phase, index, msg, step.Action.Kind.key()))
	}

	if step.Status != 0 && step.Action.IsNone() {
		return nil, &ValidationError{File: s.ID, Phase: phase, Index: index, Msg: "status requires an action"}
	}
	if len(step.Capture) > 0 && step.Action.IsNone() {
		return nil, &ValidationError{File: s.ID, Phase: phase, Index: index, Msg: "capture requires an action"}
	}
	if step.Schema != nil && step.Action.IsNone() {
		return nil, &ValidationError{File: s.ID, Phase: phase, Index: index, Msg: "schema requires an action"}
	}
	if len(rs.DependsOn) > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s[%d]: depends_on is ignored on steps", phase, index))
	}

	return step, nil
}

// ParseBaseFile reads a directory base settings file.
func ParseBaseFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading base settings: %w", err)
	}
	var raw rawSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(raw.DependsOn) > 0 {
		return nil, fmt.Errorf("%s: depends_on is not allowed in base settings", path)
	}
	return raw.settings(), nil
}
