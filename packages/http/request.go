package http

import (
	"sort"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// Request is one fully resolved HTTP call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// HasHeader reports whether key is set, ignoring case.
func (r *Request) HasHeader(key string) bool {
	for k := range r.Headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Curl renders the request as a shell-quoted curl command line.
func (r *Request) Curl() string {
	parts := []string{"curl", "-X", r.Method}

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, "-H", shellescape.Quote(k+": "+r.Headers[k]))
	}

	if len(r.Body) > 0 {
		parts = append(parts, "--data", shellescape.Quote(string(r.Body)))
	}
	parts = append(parts, shellescape.Quote(r.URL))
	return strings.Join(parts, " ")
}
