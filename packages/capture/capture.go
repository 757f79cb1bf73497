package capture

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/yapi/packages/http"
)

// ErrDecodeFailure reports a body that is not valid JSON.
var ErrDecodeFailure = errors.New("response body is not valid JSON")

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// Decode parses body as JSON. On failure it returns an empty mapping along
// with ErrDecodeFailure so callers can carry on with the empty value.
func Decode(body []byte) (any, error) {
	if !gjson.ValidBytes(body) {
		return map[string]any{}, ErrDecodeFailure
	}
	return gjson.ParseBytes(body).Value(), nil
}

type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

// Extract resolves one capture path against the response.
func (e *Extractor) Extract(path string) (any, bool) {
	path = strings.TrimSpace(path)
	switch {
	case path == "status":
		return e.response.StatusCode, true
	case path == "duration":
		return e.response.Elapsed(), true
	case strings.HasPrefix(path, "header."):
		return e.extractFromHeader(strings.TrimPrefix(path, "header."))
	case path == "body":
		return e.extractFromBody("")
	case strings.HasPrefix(path, "body."):
		return e.extractFromBody(strings.TrimPrefix(path, "body."))
	default:
		return e.extractFromBody(path)
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		if path == "" {
			return string(e.response.Body), true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(NormalizePath(path))
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

// ExtractAll resolves every capture. Names whose path matched nothing are
// returned in missing, sorted.
func ExtractAll(resp *http.Response, captures map[string]string) (values map[string]any, missing []string) {
	extractor := NewExtractor(resp)
	values = make(map[string]any, len(captures))

	for name, path := range captures {
		if value, ok := extractor.Extract(path); ok {
			values[name] = value
		} else {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return values, missing
}

// NormalizePath rewrites bracket indexes (items[0].id) to gjson dots
// (items.0.id).
func NormalizePath(path string) string {
	path = indexPattern.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(path, ".")
}
