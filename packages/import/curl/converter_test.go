package curl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_SimpleGet(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl https://api.example.com/users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "GET" {
		t.Errorf("expected method GET, got %s", parsed.Method)
	}
	if parsed.URL != "https://api.example.com/users" {
		t.Errorf("expected URL https://api.example.com/users, got %s", parsed.URL)
	}
}

func TestParse_PostWithData(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -X POST https://api.example.com/users -d '{"name":"John"}'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Method != "POST" {
		t.Errorf("expected method POST, got %s", parsed.Method)
	}
	if parsed.Body != `{"name":"John"}` {
		t.Errorf("expected body {\"name\":\"John\"}, got %s", parsed.Body)
	}
}

func TestParse_WithHeaders(t *testing.T) {
	converter := NewConverter()

	parsed, err := converter.Parse(`curl -H "Content-Type: application/json" -H "Authorization: Bearer token123" -A yapi https://api.example.com/users`)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Authorization": "Bearer token123",
		"User-Agent":    "yapi",
	}, parsed.Headers, "JSON content type is implied")
}

func TestParse_MethodAfterData(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -d '{}' -X PUT https://api.example.com/users/1`)
	require.NoError(t, err)
	assert.Equal(t, "PUT", parsed.Method)

	parsed, err = NewConverter().Parse(`curl -X PATCH -d '{}' https://api.example.com/users/1`)
	require.NoError(t, err)
	assert.Equal(t, "PATCH", parsed.Method, "explicit method wins over implied POST")
}

func TestParse_Errors(t *testing.T) {
	converter := NewConverter()

	_, err := converter.Parse("curl")
	assert.Error(t, err)

	_, err = converter.Parse("curl -X")
	assert.ErrorContains(t, err, "missing value for -X")

	_, err = converter.Parse("curl -v --compressed")
	assert.ErrorContains(t, err, "no URL found")
}

func TestReadCommands(t *testing.T) {
	input := `# list users
curl https://api.example.com/users

curl -X POST https://api.example.com/users \
  -H "Accept: application/json" \
  -d '{"name":"Jane"}'
`
	cmds, err := ReadCommands(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "curl https://api.example.com/users", cmds[0])
	assert.Contains(t, cmds[1], `-d '{"name":"Jane"}'`)
}

func TestConvert_CommonRoot(t *testing.T) {
	converter := NewConverter(WithStatus(200))

	s, err := converter.Convert(
		`curl -H "Accept: application/json" https://api.example.com/users?page=2`,
		`curl -X POST https://api.example.com/users -d '{"name":"Jane","tags":["a"]}'`,
		`curl -X DELETE https://api.example.com/users/7`,
	)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", s.Root)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, s.Headers)
	require.Len(t, s.Steps, 3)

	require.NotNil(t, s.Steps[0].Get)
	assert.Equal(t, "/users?page=2", *s.Steps[0].Get)
	assert.Equal(t, "get users", s.Steps[0].Name)
	assert.Equal(t, 200, s.Steps[0].Status)

	require.NotNil(t, s.Steps[1].Post)
	assert.Equal(t, map[string]any{"name": "Jane", "tags": []any{"a"}}, s.Steps[1].Body)

	require.NotNil(t, s.Steps[2].Delete)
	assert.Equal(t, "/users/7", *s.Steps[2].Delete)
	assert.Empty(t, s.Warnings)
}

func TestConvert_DifferentHosts(t *testing.T) {
	s, err := NewConverter().Convert(
		`curl https://a.example.com/x`,
		`curl https://b.example.com/y`,
	)
	require.NoError(t, err)
	assert.Empty(t, s.Root)
	assert.Equal(t, "https://a.example.com/x", *s.Steps[0].Get)
}

func TestConvert_Warnings(t *testing.T) {
	s, err := NewConverter().Convert(
		`curl -k -H "X-Env: a" https://api.example.com/a`,
		`curl -H "X-Env: b" -d "name=plain" https://api.example.com/b`,
	)
	require.NoError(t, err)
	assert.Equal(t, "b", s.Headers["X-Env"])
	assert.Equal(t, "name=plain", s.Steps[1].Body)
	assert.Len(t, s.Warnings, 3)
}

func TestConvert_BasicAuth(t *testing.T) {
	s, err := NewConverter().Convert(`curl -u admin:secret https://api.example.com/admin`)
	require.NoError(t, err)
	assert.Equal(t, "Basic ${base64('admin:secret')}", s.Headers["Authorization"])
}

func TestConvert_UnsupportedMethod(t *testing.T) {
	_, err := NewConverter().Convert(`curl -X OPTIONS https://api.example.com/`)
	assert.ErrorContains(t, err, "unsupported method OPTIONS")
}

func TestConvertYAML(t *testing.T) {
	data, _, err := NewConverter().ConvertYAML(`curl -X POST https://api.example.com/users -d '{"name":"Jane"}'`)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "https://api.example.com", doc["root"])
	steps := doc["steps"].([]any)
	step := steps[0].(map[string]any)
	assert.Equal(t, "/users", step["post"])
	assert.NotContains(t, step, "get")
}
