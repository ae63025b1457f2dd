package params

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidCypher is returned when cypherSearch is not valid base64.
var ErrInvalidCypher = errors.New("cypherSearch is not valid base64")

var cypherEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// EncodeCypher encodes a raw cypher query for the cypherSearch parameter
// using the URL-safe base64 alphabet.
func EncodeCypher(raw string) string {
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCypher decodes a cypherSearch value. Standard and URL alphabets are
// accepted, padded or not. A '+' turned into a space by form decoding is
// restored first.
func DecodeCypher(encoded string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(encoded), " ", "+")
	for _, enc := range cypherEncodings {
		if b, err := enc.DecodeString(s); err == nil {
			return string(b), nil
		}
	}
	return "", ErrInvalidCypher
}

// CypherQuery decodes the cypherSearch parameter. ok is false when the
// parameter is absent or empty.
func (s State) CypherQuery() (query string, ok bool, err error) {
	if !s.cypherSearch.Truthy() {
		return "", false, nil
	}
	q, err := DecodeCypher(s.cypherSearch.value)
	if err != nil {
		return "", true, err
	}
	return q, true, nil
}
