package endpoint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxBodyBytes caps how much of a request body is read for parameters.
const MaxBodyBytes = 10 << 20

// Request is one inbound REST request with its collected parameters.
type Request struct {
	http   *http.Request
	Params *Params
}

// NewRequest wraps r. A nil params is replaced by an empty set.
func NewRequest(r *http.Request, params *Params) *Request {
	if params == nil {
		params = NewParams()
	}
	return &Request{http: r, Params: params}
}

// HTTP returns the underlying *http.Request.
func (r *Request) HTTP() *http.Request {
	return r.http
}

// Method returns the HTTP method.
func (r *Request) Method() string {
	return r.http.Method
}

// Header returns the first value of the named request header, or "".
func (r *Request) Header(name string) string {
	return r.http.Header.Get(name)
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	return r.http.Context()
}

// WithContext returns a shallow copy of r with its context changed to ctx.
// The copy shares Params with r.
func (r *Request) WithContext(ctx context.Context) *Request {
	return &Request{http: r.http.WithContext(ctx), Params: r.Params}
}

// ParseParams collects the parameters of r in order: the named path values,
// the query string in raw order, then the top-level members of a JSON body
// in document order or the fields of a urlencoded form. A later source
// replaces the value of an earlier key but keeps its position.
//
// The body is restored after reading so handlers can read it again.
func ParseParams(r *http.Request, pathKeys []string) (*Params, error) {
	p := NewParams()
	for _, k := range pathKeys {
		p.Set(k, r.PathValue(k))
	}
	if err := addEncoded(p, r.URL.RawQuery); err != nil {
		return nil, err
	}

	if r.Body == nil || r.Body == http.NoBody {
		return p, nil
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded" {
		return p, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("endpoint: read body: %w", err)
	}

	if mediaType == "application/x-www-form-urlencoded" {
		if err := addEncoded(p, string(body)); err != nil {
			return nil, err
		}
		return p, nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return p, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidBody
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return p, nil
	}
	doc.ForEach(func(key, value gjson.Result) bool {
		p.Set(key.String(), value.Value())
		return true
	})
	return p, nil
}

// addEncoded adds the pairs of a urlencoded string to p in raw order.
func addEncoded(p *Params, raw string) error {
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		p.Set(key, value)
	}
	return nil
}
