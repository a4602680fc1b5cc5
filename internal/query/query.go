// Package query implements lenient parsing of URL query strings.
//
// The standard library's url.ParseQuery rejects the whole query on the
// first malformed percent escape. Redirect URIs produced by authorization
// servers in the wild are not always strictly encoded, so decoding here is
// best-effort: escapes that cannot be decoded pass through verbatim.
package query

import "strings"

// Values maps a parameter name to the ordered sequence of values it was
// given. Repeated keys append in request order.
type Values map[string][]string

// Get returns the first value associated with key, or "" if the key is
// absent.
func (v Values) Get(key string) string {
	if vs := v[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether key carries at least one value.
func (v Values) Has(key string) bool {
	return len(v[key]) > 0
}

// Decode parses a raw query string ("a=1&b=2&a=3") into Values. An empty
// input yields an empty, non-nil map. Pairs without "=" are kept as keys
// with an empty value.
func Decode(rawQuery string) Values {
	values := make(Values)
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescape(key)
		values[key] = append(values[key], unescape(value))
	}
	return values
}

// unescape percent-decodes s, treating "+" as space per
// application/x-www-form-urlencoded. Malformed escapes are left untouched.
func unescape(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch s[i] {
		case '+':
			b.WriteByte(' ')
			i++
		case '%':
			if i+3 <= len(s) {
				hi, okHi := unhex(s[i+1])
				lo, okLo := unhex(s[i+2])
				if okHi && okLo {
					b.WriteByte(hi<<4 | lo)
					i += 3
					continue
				}
			}
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
