// Package curl converts curl commands into yapi suites.
package curl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Converter converts curl commands to suite documents.
type Converter struct {
	status int
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithStatus adds a status expectation to every generated step.
func WithStatus(code int) Option {
	return func(c *Converter) {
		c.status = code
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command represents a parsed curl command.
type Command struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
}

// Suite is the generated suite document.
type Suite struct {
	Root    string            `yaml:"root,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Steps   []Step            `yaml:"steps"`

	// Warnings lists what the conversion could not express.
	Warnings []string `yaml:"-"`
}

// Step is one generated step. Exactly one action field is set.
type Step struct {
	Name   string  `yaml:"name,omitempty"`
	Post   *string `yaml:"post,omitempty"`
	Get    *string `yaml:"get,omitempty"`
	Put    *string `yaml:"put,omitempty"`
	Patch  *string `yaml:"patch,omitempty"`
	Delete *string `yaml:"delete,omitempty"`
	Body   any     `yaml:"body,omitempty"`
	Status int     `yaml:"status,omitempty"`
}

// ReadCommands splits r into curl commands, joining backslash line
// continuations and skipping blank lines and # comments.
func ReadCommands(r io.Reader) ([]string, error) {
	var commands []string
	var current strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			current.WriteString(strings.TrimSuffix(line, "\\"))
			current.WriteString(" ")
			continue
		}

		current.WriteString(line)
		commands = append(commands, current.String())
		current.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}
	if current.Len() > 0 {
		commands = append(commands, current.String())
	}
	return commands, nil
}

// ConvertFile converts a file containing curl commands to suite YAML.
func (c *Converter) ConvertFile(path string) ([]byte, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	commands, err := ReadCommands(file)
	if err != nil {
		return nil, nil, err
	}
	return c.ConvertYAML(commands...)
}

// ConvertYAML converts commands and renders the suite as YAML.
func (c *Converter) ConvertYAML(commands ...string) ([]byte, []string, error) {
	s, err := c.Convert(commands...)
	if err != nil {
		return nil, nil, err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render suite: %w", err)
	}
	return data, s.Warnings, nil
}

// Convert builds one suite with a step per command. When every URL shares
// a scheme and host, it becomes the suite root and steps use paths.
// Headers are hoisted to the suite because step headers only apply to the
// requests after the step.
func (c *Converter) Convert(commands ...string) (*Suite, error) {
	if len(commands) == 0 {
		return nil, fmt.Errorf("no curl commands")
	}

	parsed := make([]*Command, len(commands))
	for i, cmd := range commands {
		p, err := c.Parse(cmd)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		parsed[i] = p
	}

	s := &Suite{Root: commonRoot(parsed)}
	for i, p := range parsed {
		step, err := c.step(s, p)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		s.Steps = append(s.Steps, step)

		for _, key := range sortedKeys(p.Headers) {
			value := p.Headers[key]
			if prev, ok := s.Headers[key]; ok && prev != value {
				s.Warnings = append(s.Warnings, fmt.Sprintf("command %d: header %s=%q overrides %q for the whole suite", i+1, key, value, prev))
			}
			if s.Headers == nil {
				s.Headers = make(map[string]string)
			}
			s.Headers[key] = value
		}
		if p.Insecure {
			s.Warnings = append(s.Warnings, fmt.Sprintf("command %d: uses --insecure; run yapi with --insecure", i+1))
		}
	}
	return s, nil
}

func (c *Converter) step(s *Suite, p *Command) (Step, error) {
	target := p.URL
	if s.Root != "" {
		target = strings.TrimPrefix(p.URL, s.Root)
		if target == "" {
			target = "/"
		}
	}

	step := Step{Name: generateName(p.URL, p.Method), Status: c.status}
	switch p.Method {
	case "POST":
		step.Post = &target
	case "GET":
		step.Get = &target
	case "PUT":
		step.Put = &target
	case "PATCH":
		step.Patch = &target
	case "DELETE":
		step.Delete = &target
	default:
		return Step{}, fmt.Errorf("unsupported method %s", p.Method)
	}

	if p.Body != "" {
		var body any
		if err := json.Unmarshal([]byte(p.Body), &body); err != nil {
			s.Warnings = append(s.Warnings, fmt.Sprintf("%s: body is not JSON and is sent as a JSON string", step.Name))
			body = p.Body
		}
		step.Body = body
	}

	if p.BasicAuth != "" {
		quoted := strings.ReplaceAll(p.BasicAuth, "'", "\\'")
		p.Headers["Authorization"] = "Basic ${base64('" + quoted + "')}"
	}

	return step, nil
}

// Parse parses a curl command string.
func (c *Converter) Parse(curlCmd string) (*Command, error) {
	parsed := &Command{
		Method:  "GET",
		Headers: make(map[string]string),
	}

	curlCmd = strings.TrimSpace(curlCmd)
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	curlCmd = strings.TrimPrefix(curlCmd, "curl ")

	tokens := tokenize(curlCmd)
	explicitMethod := false

	value := func(i int) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("missing value for %s", tokens[i])
		}
		return tokens[i+1], nil
	}

	for i := 0; i < len(tokens); {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			explicitMethod = true
			i += 2

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}
			i += 2

		case "-d", "--data", "--data-raw", "--data-binary", "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Body = v
			if !explicitMethod {
				parsed.Method = "POST"
			}
			i += 2

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i += 2

		case "-A", "--user-agent", "-e", "--referer", "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers[headerForFlag(token)] = v
			i += 2

		case "-k", "--insecure":
			parsed.Insecure = true
			i++

		case "-L", "--location":
			parsed.FollowRedirects = true
			i++

		default:
			switch {
			case strings.HasPrefix(token, "-"):
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i += 2
				} else {
					i++
				}
			default:
				if parsed.URL == "" && isURL(token) {
					parsed.URL = token
				}
				i++
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	// Header names are case-insensitive; curl's Content-Type is implied by
	// yapi for JSON bodies.
	for k, v := range parsed.Headers {
		if strings.EqualFold(k, "Content-Type") && strings.HasPrefix(v, "application/json") {
			delete(parsed.Headers, k)
		}
	}

	return parsed, nil
}

func headerForFlag(flag string) string {
	switch flag {
	case "-A", "--user-agent":
		return "User-Agent"
	case "-e", "--referer":
		return "Referer"
	default:
		return "Cookie"
	}
}

// commonRoot returns scheme://host when all commands share it.
func commonRoot(cmds []*Command) string {
	var root string
	for _, c := range cmds {
		u, err := url.Parse(c.URL)
		if err != nil || u.Host == "" {
			return ""
		}
		r := u.Scheme + "://" + u.Host
		if root != "" && r != root {
			return ""
		}
		root = r
	}
	return root
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

var pathPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName derives a step name such as "get users/42" from the URL
// and method.
func generateName(rawURL, method string) string {
	path := "/"
	if m := pathPattern.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
		path = m[1]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}
	return strings.ToLower(method) + " " + path
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
