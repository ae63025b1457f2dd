package bloodhound

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"
)

// Request headers used by the bhesignature scheme.
const (
	headerRequestDate = "RequestDate"
	headerSignature   = "Signature"
)

// signer authenticates outgoing requests.
type signer interface {
	sign(req *http.Request, body []byte, now time.Time)
}

type bearer struct{ token string }

func (b bearer) sign(req *http.Request, _ []byte, _ time.Time) {
	req.Header.Set("Authorization", "Bearer "+b.token)
}

// hmacSigner chains three HMAC-SHA256 digests: the operation (method and
// request URI), the request date truncated to the hour, then the body.
// Each digest keys the next.
type hmacSigner struct {
	id  string
	key string
}

func (s hmacSigner) sign(req *http.Request, body []byte, now time.Time) {
	date := now.UTC().Format(time.RFC3339)
	req.Header.Set("Authorization", "bhesignature "+s.id)
	req.Header.Set(headerRequestDate, date)
	req.Header.Set(headerSignature, signature(s.key, req.Method, req.URL.RequestURI(), date, body))
}

func signature(key, method, uri, date string, body []byte) string {
	op := hmac.New(sha256.New, []byte(key))
	op.Write([]byte(method + uri))

	day := hmac.New(sha256.New, op.Sum(nil))
	day.Write([]byte(date[:13]))

	final := hmac.New(sha256.New, day.Sum(nil))
	if len(body) > 0 {
		final.Write(body)
	}
	return base64.StdEncoding.EncodeToString(final.Sum(nil))
}

type anonymous struct{}

func (anonymous) sign(*http.Request, []byte, time.Time) {}
