package env

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/rs/zerolog"
)

// ErrExpression is matched by every *ExpressionError.
var ErrExpression = errors.New("expression error")

var errEmptyExpression = errors.New("empty expression")

// ExpressionError reports an expression that failed to compile or run.
type ExpressionError struct {
	Source string
	Err    error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Source, e.Err)
}

func (e *ExpressionError) Unwrap() []error {
	return []error{ErrExpression, e.Err}
}

// Evaluator resolves templates and expressions against a Store.
type Evaluator struct {
	store  *Store
	logger zerolog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

func NewEvaluator(store *Store, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the context the evaluator reads and writes.
func (e *Evaluator) Store() *Store {
	return e.store
}

// ResolveTemplate replaces every ${...} span of s with its stringified
// value. When s holds no span the whole string is evaluated as an
// expression instead; if that fails, s is returned unchanged. A bare word
// only resolves when it names a variable, so "default" or "now" stay
// plain strings even though helpers of that name exist.
func (e *Evaluator) ResolveTemplate(s string) (any, error) {
	out, err := e.interpolate(s)
	if err != nil {
		return nil, err
	}
	if out != s {
		return out, nil
	}

	if name := strings.TrimSpace(s); isIdentifier(name) && !isLiteralKeyword(name) {
		if _, ok := e.store.Get(name); !ok {
			return s, nil
		}
	}

	v, err := e.Eval(s)
	if err != nil {
		e.logger.Debug().Err(err).Str("source", s).Msg("template fallback kept literal")
		return s, nil
	}
	if v != nil && reflect.ValueOf(v).Kind() == reflect.Func {
		return s, nil
	}
	return v, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

func isLiteralKeyword(s string) bool {
	switch s {
	case "true", "false", "nil":
		return true
	}
	return false
}

// ResolveString is ResolveTemplate rendered as a string.
func (e *Evaluator) ResolveString(s string) (string, error) {
	v, err := e.ResolveTemplate(s)
	if err != nil {
		return "", err
	}
	return Stringify(v), nil
}

// Eval evaluates src as a sequence of ;-separated expressions and returns
// the value of the last one. Each statement sees the writes of the previous.
func (e *Evaluator) Eval(src string) (any, error) {
	stmts := splitStatements(src)
	if len(stmts) == 0 {
		return nil, &ExpressionError{Source: src, Err: errEmptyExpression}
	}

	var result any
	for _, stmt := range stmts {
		v, err := e.run(stmt)
		if err != nil {
			return nil, &ExpressionError{Source: src, Err: err}
		}
		result = v
	}
	return result, nil
}

// SerializeForLog evaluates src and renders the value as compact JSON.
func (e *Evaluator) SerializeForLog(src string) (string, error) {
	v, err := e.Eval(src)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v), nil
	}
	return string(data), nil
}

// Convert returns a deep copy of v with every string leaf resolved in
// template mode. The input is left untouched.
func (e *Evaluator) Convert(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return e.ResolveTemplate(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			resolved, err := e.Convert(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			resolved, err := e.Convert(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// ConvertMap is Convert for string keyed mappings.
func (e *Evaluator) ConvertMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	v, err := e.Convert(m)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// ResolveURL resolves an action target. Absolute http(s) targets are
// resolved as they are, anything else is appended to base first.
func (e *Evaluator) ResolveURL(base, target string) (string, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = base + target
	}
	return e.ResolveString(target)
}

func (e *Evaluator) run(src string) (any, error) {
	env := e.store.Env()
	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

func (e *Evaluator) interpolate(s string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var sb strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := spanEnd(rest, start+2)
		if end < 0 {
			return "", &ExpressionError{Source: s, Err: errors.New("unterminated ${")}
		}

		sb.WriteString(rest[:start])
		src := strings.TrimSpace(rest[start+2 : end])
		v, err := e.Eval(src)
		if err != nil {
			return "", err
		}
		sb.WriteString(Stringify(v))
		rest = rest[end+1:]
	}
	return sb.String(), nil
}

// spanEnd returns the index of the brace closing a span whose body starts
// at i, or -1.
func spanEnd(s string, i int) int {
	depth := 0
	for ; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			i = skipQuoted(s, i)
			if i < 0 {
				return -1
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

// skipQuoted returns the index of the quote closing the literal opened at i.
func skipQuoted(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return -1
}

// splitStatements splits src on ; outside of literals and brackets.
func splitStatements(src string) []string {
	var stmts []string
	depth, last := 0, 0
	add := func(stmt string) {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '"', '\'', '`':
			j := skipQuoted(src, i)
			if j < 0 {
				i = len(src)
				continue
			}
			i = j
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ';':
			if depth == 0 {
				add(src[last:i])
				last = i + 1
			}
		}
	}
	if last < len(src) {
		add(src[last:])
	}
	return stmts
}
