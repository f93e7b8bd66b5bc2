package location

import (
	"errors"
	"net/url"
	"strings"
)

// Path canonicalization errors.
var (
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Location is a combined address: a canonical path plus its raw query string.
// Two locations are the same address only if both parts are equal, so a
// query-only change is still a change.
type Location struct {
	// Path is the canonical path, always starting with "/".
	Path string `json:"path"`

	// Query is the raw query string without the leading "?".
	Query string `json:"query,omitempty"`
}

// Root returns the "/" location.
func Root() Location {
	return Location{Path: "/"}
}

// String renders the location as "path?query".
func (l Location) String() string {
	if l.Query == "" {
		return l.Path
	}
	return l.Path + "?" + l.Query
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l.Path == "" && l.Query == ""
}

// Equal reports whether l and o name the same address.
func (l Location) Equal(o Location) bool {
	return l.Path == o.Path && l.Query == o.Query
}

// Parse builds a Location from a path ("/a/b?x=1") or an absolute href
// ("https://host/a/b?x=1#frag"). Scheme, host and fragment are discarded.
func Parse(raw string) (Location, error) {
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, err
		}
		raw = u.EscapedPath()
		if u.RawQuery != "" {
			raw += "?" + u.RawQuery
		}
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	path, _, err := Canonicalize(raw)
	if err != nil {
		return Location{}, err
	}
	_, query, _ := strings.Cut(raw, "?")
	return Location{Path: path, Query: query}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Location {
	l, err := Parse(raw)
	if err != nil {
		panic("location: " + err.Error())
	}
	return l
}

// Normalize returns the canonical string form of raw, or raw unchanged when it
// cannot be parsed. Used when comparing a requested target to an observed
// location.
func Normalize(raw string) string {
	l, err := Parse(raw)
	if err != nil {
		return raw
	}
	return l.String()
}

// Canonicalize normalizes the path portion of input.
//
// The following transformations are applied:
//   - Ensure a leading slash
//   - Collapse multiple slashes (/blog//post → /blog/post)
//   - Remove "." segments and resolve ".." segments
//   - Remove trailing slash (except for root "/")
//
// Paths containing a backslash, a NUL byte, an invalid percent escape, or a
// ".." that escapes root are rejected. Any query string is ignored.
func Canonicalize(input string) (path string, changed bool, err error) {
	path, _, _ = strings.Cut(input, "?")
	if path == "" {
		return "/", true, nil
	}

	if strings.Contains(path, "\\") {
		return "", false, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", false, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", false, err
		}
	}

	original := path

	var result []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				return "", false, ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	path = "/" + strings.Join(result, "/")
	return path, path != original, nil
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
