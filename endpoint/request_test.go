package endpoint

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestParseParams_QueryOrder(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/blog/v1/posts?z=1&a=2&m=hello%20world", nil)

	p, err := ParseParams(r, nil)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if got, want := p.Keys(), []string{"z", "a", "m"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if p.String("m") != "hello world" {
		t.Fatalf("m = %q", p.String("m"))
	}
}

func TestParseParams_JSONBodyDocumentOrder(t *testing.T) {
	body := `{"title":"<p>TEST</p>","id":123,"meta":{"title":"x"},"tags":["a","b"]}`
	r := httptest.NewRequest(http.MethodPost, "/posts?page=2&title=old", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	p, err := ParseParams(r, nil)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	// title keeps its query position but takes the body value.
	if got, want := p.Keys(), []string{"page", "title", "id", "meta", "tags"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	if p.String("title") != "<p>TEST</p>" {
		t.Fatalf("title = %q", p.String("title"))
	}
	if v, _ := p.Get("id"); v != float64(123) {
		t.Fatalf("id = %#v, want float64(123)", v)
	}
	meta, ok := p.Get("meta")
	if !ok || !reflect.DeepEqual(meta, map[string]any{"title": "x"}) {
		t.Fatalf("meta = %#v", meta)
	}

	rest, err := io.ReadAll(r.Body)
	if err != nil || string(rest) != body {
		t.Fatalf("body not restored: %q, %v", rest, err)
	}
}

func TestParseParams_Form(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader("b=2&a=%3Cb%3E"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, err := ParseParams(r, nil)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if got, want := p.Values(), []string{"2", "<b>"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
}

func TestParseParams_Errors(t *testing.T) {
	bad := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":`))
	bad.Header.Set("Content-Type", "application/json")
	if _, err := ParseParams(bad, nil); !errors.Is(err, ErrInvalidBody) {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}

	badQuery := httptest.NewRequest(http.MethodGet, "/posts", nil)
	badQuery.URL.RawQuery = "a=%zz"
	if _, err := ParseParams(badQuery, nil); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestParseParams_IgnoresOtherBodies(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/posts?a=1", strings.NewReader("plain text"))
	r.Header.Set("Content-Type", "text/plain")

	p, err := ParseParams(r, nil)
	if err != nil {
		t.Fatalf("ParseParams: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected only the query param, got %v", p.Keys())
	}
}

func TestRequest_Accessors(t *testing.T) {
	hr := httptest.NewRequest(http.MethodPut, "/posts", nil)
	hr.Header.Set("Origin", "https://example.com")
	req := NewRequest(hr, nil)

	if req.Method() != http.MethodPut {
		t.Errorf("Method() = %q", req.Method())
	}
	if req.Header("origin") != "https://example.com" {
		t.Errorf("Header() = %q", req.Header("origin"))
	}
	if req.Params == nil || req.Params.Len() != 0 {
		t.Errorf("expected empty params")
	}
	if req.HTTP() != hr {
		t.Errorf("HTTP() should return the wrapped request")
	}
}
