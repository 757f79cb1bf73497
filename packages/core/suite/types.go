package suite

import (
	"path"
)

// Phase names one of the ordered step lists of a suite.
type Phase string

const (
	PhaseSetup    Phase = "beforeAll"
	PhaseMain     Phase = "steps"
	PhaseTeardown Phase = "afterAll"
	PhaseCleanup  Phase = "cleanup"
)

// ForwardPhases are run, in order, during the forward pass.
var ForwardPhases = []Phase{PhaseSetup, PhaseMain, PhaseTeardown}

func (p Phase) Label() string {
	switch p {
	case PhaseSetup:
		return "BEFORE ALL"
	case PhaseMain:
		return "STEPS"
	case PhaseTeardown:
		return "AFTER ALL"
	case PhaseCleanup:
		return "CLEANUP"
	default:
		return string(p)
	}
}

// Settings is the block shared by suites, steps and directory base files.
type Settings struct {
	Root    string         `yaml:"root,omitempty" json:"root,omitempty"`
	Vars    map[string]any `yaml:"vars,omitempty" json:"vars,omitempty"`
	Headers map[string]any `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// IsZero reports whether the settings carry nothing to apply.
func (s *Settings) IsZero() bool {
	return s == nil || (s.Root == "" && len(s.Vars) == 0 && len(s.Headers) == 0)
}

// Clone returns a shallow copy with its own maps.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	out := &Settings{Root: s.Root}
	if s.Vars != nil {
		out.Vars = make(map[string]any, len(s.Vars))
		for k, v := range s.Vars {
			out.Vars[k] = v
		}
	}
	if s.Headers != nil {
		out.Headers = make(map[string]any, len(s.Headers))
		for k, v := range s.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

// ActionKind selects the HTTP action of a step.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCreate
	ActionRead
	ActionUpdate
	ActionPartialUpdate
	ActionDelete
)

// ActionPrecedence is the order used to pick one action when a step declares
// several and strict validation is disabled.
var ActionPrecedence = []ActionKind{ActionCreate, ActionRead, ActionUpdate, ActionPartialUpdate, ActionDelete}

func (k ActionKind) Method() string {
	switch k {
	case ActionCreate:
		return "POST"
	case ActionRead:
		return "GET"
	case ActionUpdate:
		return "PUT"
	case ActionPartialUpdate:
		return "PATCH"
	case ActionDelete:
		return "DELETE"
	default:
		return ""
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return "create"
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionPartialUpdate:
		return "partial-update"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// key is the file-format key carrying this action.
func (k ActionKind) key() string {
	switch k {
	case ActionCreate:
		return "post"
	case ActionRead:
		return "get"
	case ActionUpdate:
		return "put"
	case ActionPartialUpdate:
		return "patch"
	case ActionDelete:
		return "delete"
	default:
		return ""
	}
}

// Action is the resolved HTTP action of a step. The zero value is no action.
type Action struct {
	Kind ActionKind
	Path string
}

func (a Action) IsNone() bool {
	return a.Kind == ActionNone
}

// Step is one entry of a phase list.
type Step struct {
	Name    string
	Action  Action
	Body    any
	Eval    []string
	JSON    string
	Capture map[string]string
	Log     string
	Status  int
	Check   []string
	Schema  any

	// Settings is nil when the step declares no root, vars or headers.
	Settings *Settings
}

// Label returns a human readable identifier for reporting.
func (s *Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if !s.Action.IsNone() {
		return s.Action.Kind.Method() + " " + s.Action.Path
	}
	return ""
}

// Suite is one parsed test file. It is not modified after parsing.
type Suite struct {
	ID        string
	Path      string
	DependsOn []string
	Settings  *Settings

	// Base holds the directory base settings applied before everything else,
	// nil when the directory has none.
	Base *Settings

	BeforeAll []*Step
	Steps     []*Step
	AfterAll  []*Step
	Cleanup   []*Step

	// Warnings collects non-fatal parse findings.
	Warnings []string
}

// Phase returns the step list of the given phase.
func (s *Suite) Phase(p Phase) []*Step {
	switch p {
	case PhaseSetup:
		return s.BeforeAll
	case PhaseMain:
		return s.Steps
	case PhaseTeardown:
		return s.AfterAll
	case PhaseCleanup:
		return s.Cleanup
	default:
		return nil
	}
}

// Dir returns the slash-separated directory of the suite relative to the run root.
func (s *Suite) Dir() string {
	return path.Dir(s.ID)
}
