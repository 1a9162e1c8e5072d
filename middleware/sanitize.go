package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/jonwraymond/restops/endpoint"
)

// ErrUnsupportedEncoding is returned by Sanitize for any encoding but UTF-8.
var ErrUnsupportedEncoding = errors.New("middleware: unsupported encoding")

// Rule rewrites the value at one parameter path. An error aborts the
// request.
type Rule func(value string) (string, error)

// SanitizeConfig configures the sanitization middleware. The zero value
// strips every tag.
type SanitizeConfig struct {
	// Rules maps dotted parameter paths ("title", "meta.title", "tags.0")
	// to custom rewrites applied before tag handling.
	Rules map[string]Rule

	// KeepTags leaves markup in place instead of stripping it.
	KeepTags bool

	// AllowedTags, when tags are stripped, keeps the listed elements with
	// only the listed attributes, e.g. {"a": {"href"}, "b": nil}.
	AllowedTags map[string][]string

	// SkipEncoding disables entity encoding of & < > " ' when KeepTags is
	// set. Stripped values are never encoded.
	SkipEncoding bool

	// Encoding must be empty or UTF-8.
	Encoding string
}

// Sanitize returns a middleware that cleans every string parameter and
// writes the results back before calling the rest of the pipeline.
//
// Each string leaf is trimmed, emptied when it is not valid UTF-8, passed to
// its path rule, then stripped of tags (or filtered to AllowedTags), or
// entity-encoded when tags are kept. Non-string leaves pass through.
func Sanitize(cfg SanitizeConfig) (endpoint.Middleware, error) {
	switch strings.ToLower(strings.ReplaceAll(cfg.Encoding, "-", "")) {
	case "", "utf8":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, cfg.Encoding)
	}
	s := &sanitizer{cfg: cfg}

	return func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		for _, key := range req.Params.Keys() {
			v, _ := req.Params.Get(key)
			clean, err := s.value(v, key)
			if err != nil {
				return nil, err
			}
			req.Params.Set(key, clean)
		}
		return next(req)
	}, nil
}

type sanitizer struct {
	cfg SanitizeConfig
}

func (s *sanitizer) value(v any, path string) (any, error) {
	switch x := v.(type) {
	case string:
		return s.str(x, path)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			clean, err := s.value(item, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			clean, err := s.value(item, path+"."+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	case []string:
		out := make([]string, len(x))
		for i, item := range x {
			clean, err := s.str(item, path+"."+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	}
	return v, nil
}

func (s *sanitizer) str(v, path string) (string, error) {
	v = strings.TrimSpace(v)
	if !utf8.ValidString(v) {
		v = ""
	}
	if rule, ok := s.cfg.Rules[path]; ok {
		var err error
		if v, err = rule(v); err != nil {
			return "", fmt.Errorf("middleware: sanitize %s: %w", path, err)
		}
	}
	if !s.cfg.KeepTags {
		if len(s.cfg.AllowedTags) > 0 {
			return filterTags(v, s.cfg.AllowedTags), nil
		}
		return StripTags(v), nil
	}
	if !s.cfg.SkipEncoding {
		v = EncodeSpecialChars(v)
	}
	return v, nil
}

// StripTags removes all markup from s. The contents of script and style
// elements are dropped, runs of whitespace collapse to one space, and the
// result is trimmed. Markup inside other raw-text elements such as title,
// textarea and xmp is stripped as well.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return collapseSpace(s)
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	inRaw := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far stands.
			return collapseSpace(b.String())
		case html.TextToken:
			switch {
			case skip > 0:
			case inRaw:
				b.WriteString(StripTags(string(z.Raw())))
			default:
				b.Write(z.Raw())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if isScriptOrStyle(name) {
				skip++
			}
			inRaw = isRawTextElement(name)
			continue
		case html.EndTagToken:
			if name, _ := z.TagName(); isScriptOrStyle(name) && skip > 0 {
				skip--
			}
		}
		inRaw = false
	}
}

// filterTags keeps only allowed elements and attributes. Text is
// re-escaped; script and style contents are dropped unless allowed. The
// body of any other raw-text element that is not allowed is filtered again.
func filterTags(s string, allowed map[string][]string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	inRaw := false
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			switch {
			case skip > 0:
			case inRaw:
				b.WriteString(filterTags(string(z.Raw()), allowed))
			default:
				b.WriteString(html.EscapeString(html.UnescapeString(string(z.Raw()))))
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			tok := z.Token()
			attrs, ok := allowed[tok.Data]
			if !ok {
				name := []byte(tok.Data)
				if isScriptOrStyle(name) {
					if tt == html.StartTagToken {
						skip++
					} else if tt == html.EndTagToken && skip > 0 {
						skip--
					}
				}
				inRaw = tt == html.StartTagToken && isRawTextElement(name)
				continue
			}
			if skip == 0 {
				writeTag(&b, tt, tok, attrs)
			}
		}
		inRaw = false
	}
}

func writeTag(b *strings.Builder, tt html.TokenType, tok html.Token, allowedAttrs []string) {
	if tt == html.EndTagToken {
		b.WriteString("</" + tok.Data + ">")
		return
	}
	b.WriteString("<" + tok.Data)
	for _, a := range tok.Attr {
		if a.Namespace != "" || !slices.Contains(allowedAttrs, a.Key) {
			continue
		}
		b.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
	}
	if tt == html.SelfClosingTagToken {
		b.WriteString(" /")
	}
	b.WriteByte('>')
}

// EncodeSpecialChars entity-encodes & < > " and ' in s. Ampersands that
// already begin a character reference are left alone.
func EncodeSpecialChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if n := entityLen(s[i:]); n > 0 {
				b.WriteString(s[i : i+n])
				i += n - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// entityLen returns the length of the character reference at the start of
// s ("&amp;", "&#39;", "&#x27;"), or 0.
func entityLen(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	i := 1
	switch {
	case s[i] == '#':
		i++
		hex := i < len(s) && (s[i] == 'x' || s[i] == 'X')
		if hex {
			i++
		}
		start := i
		for i < len(s) && (isDigit(s[i]) || (hex && isHexLetter(s[i]))) {
			i++
		}
		if i == start {
			return 0
		}
	case isLetter(s[i]):
		for i < len(s) && (isLetter(s[i]) || isDigit(s[i])) {
			i++
		}
	default:
		return 0
	}
	if i < len(s) && s[i] == ';' {
		return i + 1
	}
	return 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}), " ")
}

func isScriptOrStyle(name []byte) bool {
	n := string(name)
	return n == "script" || n == "style"
}

// isRawTextElement reports whether the tokenizer returns the body of the
// named element as a single unparsed text token.
func isRawTextElement(name []byte) bool {
	switch string(name) {
	case "iframe", "noembed", "noframes", "noscript", "plaintext", "textarea", "title", "xmp":
		return true
	}
	return false
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isLetter(c byte) bool    { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
