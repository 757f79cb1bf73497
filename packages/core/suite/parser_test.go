package suite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersSuite = `
root: http://localhost:8080
depends_on:
  - auth/login
vars:
  name: Bob
  nested:
    id: ${$makeAlphaId(8)}
headers:
  Authorization: Bearer ${token}
beforeAll:
  - post: /users
    body:
      name: ${name}
    json: user
    status: 201
steps:
  - name: fetch user
    get: /users/${user.id}
    status: 200
    check:
      - json.name == "Bob"
    eval: set("seen", true)
afterAll:
  - put: /users/${user.id}
    body:
      name: Alice
  - patch: /users/${user.id}
cleanup:
  - delete: /users/${user.id}
    log: json
`

func TestParse_Suite(t *testing.T) {
	s, err := Parse("users.yaml", []byte(usersSuite), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, "users.yaml", s.ID)
	assert.Equal(t, []string{"auth/login"}, s.DependsOn)
	require.NotNil(t, s.Settings)
	assert.Equal(t, "http://localhost:8080", s.Settings.Root)
	assert.Equal(t, "Bob", s.Settings.Vars["name"])
	assert.Equal(t, map[string]any{"id": "${$makeAlphaId(8)}"}, s.Settings.Vars["nested"])
	assert.Equal(t, "Bearer ${token}", s.Settings.Headers["Authorization"])

	require.Len(t, s.BeforeAll, 1)
	create := s.BeforeAll[0]
	assert.Equal(t, Action{Kind: ActionCreate, Path: "/users"}, create.Action)
	assert.Equal(t, map[string]any{"name": "${name}"}, create.Body)
	assert.Equal(t, "user", create.JSON)
	assert.Equal(t, 201, create.Status)
	assert.Nil(t, create.Settings)

	require.Len(t, s.Steps, 1)
	fetch := s.Steps[0]
	assert.Equal(t, "fetch user", fetch.Label())
	assert.Equal(t, ActionRead, fetch.Action.Kind)
	assert.Equal(t, []string{`json.name == "Bob"`}, fetch.Check)
	assert.Equal(t, []string{`set("seen", true)`}, fetch.Eval)

	require.Len(t, s.AfterAll, 2)
	assert.Equal(t, ActionUpdate, s.AfterAll[0].Action.Kind)
	assert.Equal(t, ActionPartialUpdate, s.AfterAll[1].Action.Kind)
	assert.Equal(t, "PATCH /users/${user.id}", s.AfterAll[1].Label())

	require.Len(t, s.Cleanup, 1)
	assert.Equal(t, "DELETE", s.Cleanup[0].Action.Kind.Method())
	assert.Equal(t, "json", s.Cleanup[0].Log)

	assert.Equal(t, s.Cleanup, s.Phase(PhaseCleanup))
	assert.Empty(t, s.Warnings)
}

func TestParse_StepSettings(t *testing.T) {
	doc := `
steps:
  - get: /ping
    vars:
      token: ${json.token}
    headers:
      X-Trace: abc
    root: http://other
`
	s, err := Parse("ping.yaml", []byte(doc), ParseOptions{})
	require.NoError(t, err)
	require.NotNil(t, s.Steps[0].Settings)
	assert.Equal(t, "http://other", s.Steps[0].Settings.Root)
	assert.Equal(t, "${json.token}", s.Steps[0].Settings.Vars["token"])
	assert.Equal(t, "abc", s.Steps[0].Settings.Headers["X-Trace"])
	assert.Nil(t, s.Settings)
}

func TestParse_MultipleActions(t *testing.T) {
	doc := `
steps:
  - get: /a
    delete: /b
    post: /c
`
	t.Run("strict", func(t *testing.T) {
		_, err := Parse("multi.yaml", []byte(doc), ParseOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, PhaseMain, verr.Phase)
		assert.Equal(t, 0, verr.Index)
		assert.Contains(t, verr.Error(), "post, get, delete")
	})

	t.Run("lenient uses precedence", func(t *testing.T) {
		s, err := Parse("multi.yaml", []byte(doc), ParseOptions{LenientActions: true})
		require.NoError(t, err)
		assert.Equal(t, Action{Kind: ActionCreate, Path: "/c"}, s.Steps[0].Action)
		require.Len(t, s.Warnings, 1)
		assert.Contains(t, s.Warnings[0], "using post")
	})
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "status without action",
			doc:  "steps:\n  - status: 200\n",
			msg:  "status requires an action",
		},
		{
			name: "capture without action",
			doc:  "steps:\n  - capture:\n      id: data.id\n",
			msg:  "capture requires an action",
		},
		{
			name: "empty step",
			doc:  "cleanup:\n  -\n",
			msg:  "empty step",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tt.doc), ParseOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_EmptyActionPath(t *testing.T) {
	s, err := Parse("root.yaml", []byte("steps:\n  - get: \"\"\n"), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, ActionRead, s.Steps[0].Action.Kind)
	assert.Equal(t, "", s.Steps[0].Action.Path)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse("broken.yaml", []byte("steps: [\n"), ParseOptions{})
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ping.yaml")
	require.NoError(t, os.WriteFile(p, []byte("steps:\n  - get: /ping\n"), 0644))

	s, err := ParseFile("ping.yaml", p, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, p, s.Path)
	assert.Len(t, s.Steps, 1)

	_, err = ParseFile("missing.yaml", filepath.Join(dir, "missing.yaml"), ParseOptions{})
	assert.Error(t, err)
}
