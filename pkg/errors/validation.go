package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxSearchTermLength = 512
	maxCypherLength     = 64 * 1024
)

// ValidateSearchTerm validates a node search term or object id.
//
// The rules are conservative:
//   - No empty or all-whitespace terms
//   - No control characters
//   - Maximum length of 512 bytes
func ValidateSearchTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return New(ErrCodeInvalidInput, "search term cannot be empty")
	}
	if len(term) > maxSearchTermLength {
		return New(ErrCodeInvalidInput, "search term too long (max %d characters)", maxSearchTermLength)
	}
	for _, r := range term {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "search term contains invalid control characters")
		}
	}
	return nil
}

// edgeKindRegex matches graph relationship kinds such as MemberOf or
// AZMGAddOwner.
var edgeKindRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateEdgeKind validates a relationship kind name.
func ValidateEdgeKind(kind string) error {
	if kind == "" {
		return New(ErrCodeInvalidEdgeKind, "edge kind cannot be empty")
	}
	if !edgeKindRegex.MatchString(kind) {
		return New(ErrCodeInvalidEdgeKind, "invalid edge kind: %q", kind)
	}
	return nil
}

// ValidateCypher validates a raw cypher query before it is sent.
func ValidateCypher(query string) error {
	if strings.TrimSpace(query) == "" {
		return New(ErrCodeInvalidCypher, "cypher query cannot be empty")
	}
	if len(query) > maxCypherLength {
		return New(ErrCodeInvalidCypher, "cypher query too long (max %d bytes)", maxCypherLength)
	}
	if strings.ContainsRune(query, '\x00') {
		return New(ErrCodeInvalidCypher, "cypher query contains a null byte")
	}
	return nil
}

// ValidateURL validates an API base URL. It must be absolute and use the
// http or https scheme.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}
	return nil
}
