package http

import (
	"strings"
	"time"
)

// Response is a fully read HTTP response. Headers keep the first value of
// each name.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// Header looks up a header case-insensitively. A missing header and an
// empty one both yield "".
func (r *Response) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Elapsed is the round trip time in whole milliseconds, the unit captures
// and reports use.
func (r *Response) Elapsed() int64 {
	return r.Duration.Milliseconds()
}
