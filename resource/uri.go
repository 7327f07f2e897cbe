package resource

import (
	"fmt"
	"strings"
)

// Scheme extracts the scheme of a location, which is the text before the first
// ":" if it is a syntactically valid URI scheme. The scheme is returned in lower case.
func Scheme(location string) (string, bool) {
	idx := strings.IndexByte(location, ':')
	if idx <= 0 {
		return "", false
	}
	scheme := location[:idx]
	if !validScheme(scheme) {
		return "", false
	}
	return strings.ToLower(scheme), true
}

// IsHierarchical reports whether location uses the "scheme://" form.
func IsHierarchical(location string) bool {
	scheme, ok := Scheme(location)
	if !ok {
		return false
	}
	return strings.HasPrefix(location[len(scheme)+1:], "//")
}

// TrimScheme removes "scheme:" or "scheme://" from location if it carries the
// given scheme. The second return value reports whether the scheme was present.
func TrimScheme(location, scheme string) (string, bool) {
	actual, ok := Scheme(location)
	if !ok || actual != strings.ToLower(scheme) {
		return location, false
	}
	rest := location[len(scheme)+1:]
	return strings.TrimPrefix(rest, "//"), true
}

// ValidateURI checks that s is an absolute URI: a valid scheme followed by a
// non-empty remainder consisting only of characters permitted by RFC 3986.
//
// Registry-based authorities such as "maven://group:artifact:1.0" are accepted,
// which is why this does not rely on net/url and its host:port validation.
func ValidateURI(s string) error {
	scheme, ok := Scheme(s)
	if !ok {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidURI, s)
	}
	rest := s[len(scheme)+1:]
	if rest == "" || rest == "//" {
		return fmt.Errorf("%w: %q has an empty scheme specific part", ErrInvalidURI, s)
	}
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case c == '%':
			if i+2 >= len(rest) || !isHex(rest[i+1]) || !isHex(rest[i+2]) {
				return fmt.Errorf("%w: malformed escape sequence at index %d in %q", ErrInvalidURI, len(scheme)+1+i, s)
			}
			i += 2
		case isUnreserved(c) || strings.IndexByte(":/?#[]@!$&'()*+,;=", c) >= 0:
		default:
			return fmt.Errorf("%w: illegal character %q at index %d in %q", ErrInvalidURI, c, len(scheme)+1+i, s)
		}
	}
	return nil
}

// validScheme checks the RFC 3986 scheme grammar:
// ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
func validScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isAlpha(c):
		case i > 0 && (isDigit(c) || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool { return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' }

func isUnreserved(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '-' || c == '.' || c == '_' || c == '~'
}
