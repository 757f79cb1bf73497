package builtin

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"sort"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
)

const (
	alphaCharset        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	alphanumericCharset = alphaCharset + "0123456789"
)

// Registry holds named helper functions. Values are plain Go funcs so the
// expression engine can call them with type-checked arguments.
type Registry struct {
	funcs map[string]any
}

// Option configures a Registry.
type Option func(*Registry)

// WithoutSprig skips merging the sprig function map.
func WithoutSprig() Option {
	return func(r *Registry) {
		for name := range sprig.TxtFuncMap() {
			if _, own := defaults[name]; !own {
				delete(r.funcs, name)
			}
		}
	}
}

var defaults = map[string]any{
	"$makeAlphaId":       makeAlphaID,
	"makeAlphaId":        makeAlphaID,
	"uuid":               funcUUID,
	"timestamp":          funcTimestamp,
	"timestampMs":        funcTimestampMs,
	"isodate":            funcISODate,
	"randomInt":          funcRandomInt,
	"randomString":       funcRandomString,
	"randomEmail":        funcRandomEmail,
	"base64":             funcBase64,
	"base64Decode":       funcBase64Decode,
	"md5":                funcMD5,
	"sha256":             funcSHA256,
	"urlEncode":          url.QueryEscape,
	"urlDecode":          funcURLDecode,
	"randomAlphanumeric": funcRandomString,
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		funcs: make(map[string]any),
	}
	for name, fn := range sprig.TxtFuncMap() {
		r.funcs[name] = fn
	}
	for name, fn := range defaults {
		r.funcs[name] = fn
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a function. fn must be a func value.
func (r *Registry) Register(name string, fn any) {
	r.funcs[name] = fn
}

func (r *Registry) Lookup(name string) (any, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Funcs returns a copy of the registered functions.
func (r *Registry) Funcs() map[string]any {
	out := make(map[string]any, len(r.funcs))
	for k, v := range r.funcs {
		out[k] = v
	}
	return out
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func makeAlphaID(length int) string {
	return randomString(length, alphaCharset)
}

func funcUUID() string {
	return uuid.New().String()
}

func funcTimestamp() int64 {
	return time.Now().Unix()
}

func funcTimestampMs() int64 {
	return time.Now().UnixMilli()
}

func funcISODate() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func funcRandomInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return rand.Intn(max-min+1) + min
}

func funcRandomString(length int) string {
	return randomString(length, alphanumericCharset)
}

func funcRandomEmail() string {
	user := randomString(8, "abcdefghijklmnopqrstuvwxyz")
	domain := randomString(6, "abcdefghijklmnopqrstuvwxyz")
	return fmt.Sprintf("%s@%s.com", user, domain)
}

func funcBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func funcBase64Decode(s string) string {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func funcMD5(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}

func funcSHA256(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

func funcURLDecode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func randomString(length int, charset string) string {
	if length <= 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
