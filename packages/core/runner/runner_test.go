package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/yapi/packages/assertions"
	"github.com/abdul-hamid-achik/yapi/packages/core/graph"
	"github.com/abdul-hamid-achik/yapi/packages/core/suite"
	yapihttp "github.com/abdul-hamid-achik/yapi/packages/http"
)

// fakeAPI is a tiny user service that records every request it receives.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	headers  []http.Header
	users    map[int]map[string]any
	nextID   int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{users: make(map[int]map[string]any), nextID: 1}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		api.mu.Lock()
		id := api.nextID
		api.nextID++
		in["id"] = id
		api.users[id] = in
		api.mu.Unlock()
		w.Header().Set("Location", fmt.Sprintf("/users/%d", id))
		writeJSON(w, http.StatusCreated, in)
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		api.mu.Lock()
		user, ok := api.users[id]
		api.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, user)
	})
	mux.HandleFunc("DELETE /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		api.mu.Lock()
		delete(api.users, id)
		api.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/missing") {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"path": r.URL.Path})
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)
		api.headers = append(api.headers, r.Header.Clone())
		api.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return api, server
}

func (a *fakeAPI) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mustParse(t *testing.T, id, doc string) *suite.Suite {
	t.Helper()
	s, err := suite.Parse(id, []byte(doc), suite.ParseOptions{})
	require.NoError(t, err)
	return s
}

type recordingReporter struct {
	NopReporter
	events []string
	logs   []string
}

func (r *recordingReporter) SuiteStarted(s *suite.Suite) {
	r.events = append(r.events, "run "+s.ID)
}

func (r *recordingReporter) PhaseStarted(s *suite.Suite, phase suite.Phase) {
	r.events = append(r.events, string(phase)+" "+s.ID)
}

func (r *recordingReporter) Logged(_ *suite.Suite, _ *suite.Step, line string) {
	r.logs = append(r.logs, line)
}

func TestRun_CaptureAndCascade(t *testing.T) {
	api, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
vars:
  name: Bob
headers:
  X-Token: t-${name}
steps:
  - post: /users
    body:
      name: ${name}
    json: user
    status: 201
    log: user
    check:
      - user.name == "Bob"
cleanup:
  - delete: /users/${user.id}
    status: 204
`, server.URL))
	b := mustParse(t, "b.yaml", `
depends_on: [a]
steps:
  - get: /users/${user.id}
    status: 200
    check:
      - json.name == name
`)

	rep := &recordingReporter{}
	result, err := NewRunner(nil, WithReporter(rep)).Run(context.Background(), []*suite.Suite{a, b})
	require.NoError(t, err)

	assert.False(t, result.Failed())
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, result.Order)
	assert.Equal(t, []string{"POST /users", "GET /users/1", "DELETE /users/1"}, api.Requests())
	assert.Equal(t, "t-Bob", api.headers[1].Get("X-Token"), "headers cascade to dependents")
	assert.Equal(t, "application/json", api.headers[0].Get("Content-Type"))
	assert.Equal(t, []string{`{"id":1,"name":"Bob"}`}, rep.logs)

	passed, failed, skipped := result.Counts()
	assert.Equal(t, []int{2, 0, 0}, []int{passed, failed, skipped})
	assert.EqualValues(t, 3, result.Latency.Requests)
}

func TestRun_StatusMismatchStopsForwardPass(t *testing.T) {
	api, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
steps:
  - get: /missing
    status: 200
  - get: /never
afterAll:
  - get: /after
cleanup:
  - get: /cleanup-a
`, server.URL))
	b := mustParse(t, "b.yaml", `
depends_on: [a]
steps:
  - get: /b
cleanup:
  - get: /cleanup-b
`)
	c := mustParse(t, "c.yaml", fmt.Sprintf(`
root: %s
steps:
  - get: /c
`, server.URL))

	result, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{a, b, c})
	require.NoError(t, err)
	assert.True(t, result.Failed())

	ra := result.Suite("a.yaml")
	require.NotNil(t, ra)
	assert.Equal(t, StatusFailed, ra.Status)
	assert.ErrorIs(t, ra.Err, assertions.ErrStatusMismatch)

	var mismatch *assertions.StatusMismatchError
	require.True(t, errors.As(ra.Err, &mismatch))
	assert.Equal(t, 200, mismatch.Expected)
	assert.Equal(t, 404, mismatch.Actual)
	assert.Equal(t, map[string]any{"error": "not found"}, mismatch.Body)

	var stepErr *StepError
	require.True(t, errors.As(ra.Err, &stepErr))
	assert.Equal(t, suite.PhaseMain, stepErr.Phase)
	assert.Equal(t, 0, stepErr.Index)

	assert.Equal(t, StatusSkipped, result.Suite("b.yaml").Status)
	assert.Equal(t, StatusSkipped, result.Suite("c.yaml").Status)

	// b never ran but its cleanup still does, with a's root inherited.
	assert.Equal(t, []string{"GET /missing", "GET /cleanup-b", "GET /cleanup-a"}, api.Requests())
}

func TestRun_CleanupFailureIsIsolated(t *testing.T) {
	api, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
steps:
  - get: /ok
cleanup:
  - get: /missing
    status: 200
  - get: /never
`, server.URL))
	b := mustParse(t, "b.yaml", fmt.Sprintf(`
root: %s
cleanup:
  - get: /cleanup-b
`, server.URL))

	result, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{a, b})
	require.NoError(t, err)

	assert.False(t, result.Failed(), "cleanup failures do not fail the run")
	require.Len(t, result.CleanupFailures(), 1)
	assert.ErrorIs(t, result.Suite("a.yaml").CleanupErr, assertions.ErrStatusMismatch)
	assert.Equal(t, []string{"GET /ok", "GET /cleanup-b", "GET /missing"}, api.Requests())
}

func TestRun_OrderAndReverseOrder(t *testing.T) {
	api, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
cleanup:
  - get: /cleanup/a
`, server.URL))
	b := mustParse(t, "b.yaml", `
depends_on: a
cleanup:
  - get: /cleanup/b
`)
	c := mustParse(t, "c.yaml", `
depends_on: a
cleanup:
  - get: /cleanup/c
`)

	result, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{c, b, a})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.yaml", "c.yaml", "b.yaml"}, result.Order)
	assert.Equal(t, []string{"GET /cleanup/b", "GET /cleanup/c", "GET /cleanup/a"}, api.Requests())
}

func TestRun_ConfigurationErrorsStopBeforeExecution(t *testing.T) {
	api, server := newFakeAPI(t)

	cyclic := []*suite.Suite{
		mustParse(t, "a.yaml", fmt.Sprintf("root: %s\ndepends_on: [b]\nsteps:\n  - get: /a\n", server.URL)),
		mustParse(t, "b.yaml", "depends_on: [a]\nsteps:\n  - get: /b\n"),
	}
	_, err := NewRunner(nil).Run(context.Background(), cyclic)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrCyclicDependency)

	unknown := []*suite.Suite{
		mustParse(t, "a.yaml", "depends_on: [ghost]\n"),
	}
	_, err = NewRunner(nil).Run(context.Background(), unknown)
	assert.ErrorIs(t, err, graph.ErrUnknownNode)

	assert.Empty(t, api.Requests())
}

func TestRun_DecodeFailureBindsEmptyMapping(t *testing.T) {
	_, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
steps:
  - get: /text
    json: page
    status: 200
    check:
      - len(page) == 0
      - len(json) == 0
`, server.URL))

	result, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)
	assert.False(t, result.Failed())
}

func TestRun_PlainWordsInBodyAndVars(t *testing.T) {
	_, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
vars:
  at: now
  greeting: hello
steps:
  - post: /users
    body: {plan: default, note: hello, tags: [list, first]}
    status: 201
    check:
      - json.plan == "default"
      - json.note == "hello"
      - json.tags[0] == "list"
      - json.tags[1] == "first"
      - at == "now"
      - greeting == "hello"
`, server.URL))

	result, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)

	ra := result.Suite("a.yaml")
	require.Len(t, ra.Steps, 1)
	assert.NoError(t, ra.Steps[0].Err)
	assert.False(t, result.Failed())
}

func TestRun_StepSettingsAndChecks(t *testing.T) {
	_, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
steps:
  - post: /users
    body: {name: Ann}
    capture:
      userId: id
      location: header.Location
    vars:
      created: ${json.id}
    eval:
      - set("seen", json.name)
    check:
      - userId == 1
      - location == "/users/1"
      - seen == "Ann"
      - created == "1"
  - check:
      - created == "1"
      - seen == "Bob"
`, server.URL))

	result, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)

	ra := result.Suite("a.yaml")
	require.Len(t, ra.Steps, 2)
	assert.NoError(t, ra.Steps[0].Err)
	assert.Equal(t, 201, ra.Steps[0].StatusCode)
	assert.Contains(t, ra.Steps[0].Curl, "curl -X POST")

	var failed *assertions.CheckFailedError
	require.True(t, errors.As(ra.Steps[1].Err, &failed))
	assert.Equal(t, `seen == "Bob"`, failed.Expression)
	assert.Equal(t, false, failed.Actual)
}

func TestRun_ReverseRestoresRecordedSettings(t *testing.T) {
	api, server := newFakeAPI(t)

	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
vars:
  token: ${makeAlphaId(12)}
steps:
  - get: /echo/${token}
cleanup:
  - get: /echo/${token}
`, server.URL))
	b := mustParse(t, "b.yaml", `
depends_on: [a]
vars:
  token: other
cleanup:
  - get: /echo/${token}
`)

	_, err := NewRunner(nil).Run(context.Background(), []*suite.Suite{a, b})
	require.NoError(t, err)

	reqs := api.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "GET /echo/other", reqs[1])
	assert.Equal(t, reqs[0], reqs[2], "cleanup sees the values the suite ran with")
}

type fakePauser struct {
	api    *fakeAPI
	seenAt int
}

func (p *fakePauser) Pause(context.Context) error {
	p.seenAt = len(p.api.Requests())
	return nil
}

func TestRun_PauseBeforeCleanup(t *testing.T) {
	api, server := newFakeAPI(t)
	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
steps:
  - get: /one
cleanup:
  - get: /two
`, server.URL))

	pauser := &fakePauser{api: api}
	_, err := NewRunner(&Config{Pause: true}, WithPauser(pauser)).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)
	assert.Equal(t, 1, pauser.seenAt)
	assert.Len(t, api.Requests(), 2)
}

func TestRun_CancelledContextStillCleansUp(t *testing.T) {
	api, server := newFakeAPI(t)
	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
steps:
  - get: /one
cleanup:
  - get: /cleanup
`, server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(nil).Run(ctx, []*suite.Suite{a})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, result.Suite("a.yaml").Status)
	assert.Equal(t, []string{"GET /cleanup"}, api.Requests())
}

func TestRun_ReporterEvents(t *testing.T) {
	_, server := newFakeAPI(t)
	a := mustParse(t, "a.yaml", fmt.Sprintf(`
root: %s
beforeAll:
  - get: /setup
steps:
  - get: /main
afterAll:
  - get: /teardown
cleanup:
  - get: /cleanup
`, server.URL))

	rep := &recordingReporter{}
	_, err := NewRunner(nil, WithReporter(rep)).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run a.yaml",
		"beforeAll a.yaml",
		"steps a.yaml",
		"afterAll a.yaml",
		"cleanup a.yaml",
	}, rep.events)
}

func TestRun_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	a := mustParse(t, "a.yaml", fmt.Sprintf("root: %s\nsteps:\n  - get: /x\n", url))
	result, err := NewRunner(&Config{}).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.False(t, IsAssertionFailure(result.Suite("a.yaml").Err))
}

type stubTransport struct {
	got []*yapihttp.Request
}

func (s *stubTransport) Do(_ context.Context, req *yapihttp.Request) (*yapihttp.Response, error) {
	s.got = append(s.got, req)
	return &yapihttp.Response{StatusCode: 200, Body: []byte(`{"ok":true}`)}, nil
}

func TestRun_ConfigSeedsHeadersAndEnv(t *testing.T) {
	transport := &stubTransport{}
	a := mustParse(t, "a.yaml", `
headers:
  Authorization: Bearer ${env.API_TOKEN}
steps:
  - get: /ping
    check: json.ok
`)

	cfg := &Config{
		Root:    "http://api.test",
		Headers: map[string]string{"Accept": "application/json"},
		EnvVars: map[string]string{"API_TOKEN": "secret"},
	}
	result, err := NewRunner(cfg, WithTransport(transport)).Run(context.Background(), []*suite.Suite{a})
	require.NoError(t, err)
	assert.False(t, result.Failed())

	require.Len(t, transport.got, 1)
	req := transport.got[0]
	assert.Equal(t, "http://api.test/ping", req.URL)
	assert.Equal(t, "application/json", req.Headers["Accept"])
	assert.Equal(t, "Bearer secret", req.Headers["Authorization"])
	assert.Nil(t, req.Body)
}
