package registry

import (
	"net/url"
	"regexp"
)

// idPattern anchors the full candidate: ASCII letters, digits,
// underscore and hyphen, one or more, case-insensitive.
var idPattern = regexp.MustCompile(`(?i)^[a-z0-9_-]+$`)

// IsValidID reports whether candidate is a well-formed link id.
// It is applied everywhere an id arrives from an external source:
// parsed file lines, CLI arguments and URL path segments.
func IsValidID(candidate string) bool {
	return idPattern.MatchString(candidate)
}

// IsValidURL reports whether raw parses as an absolute URL.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs()
}
