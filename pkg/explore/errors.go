package explore

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/matzehuels/houndview/pkg/params"
)

var (
	// ErrEmptyResult matches every [EmptyResultError].
	ErrEmptyResult = errors.New("empty result set")

	// ErrSuperseded is returned for a query whose key was replaced by a
	// newer Execute call before it finished.
	ErrSuperseded = errors.New("query superseded")
)

// EmptyResultError is returned by fetches whose payload is well formed
// but holds no nodes.
type EmptyResultError struct {
	Mode params.SearchType
}

func (e *EmptyResultError) Error() string { return string(e.Mode) + ": " + ErrEmptyResult.Error() }

// Is matches [ErrEmptyResult].
func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }

// QueryError is a failed query together with the message its mode maps
// the failure to.
type QueryError struct {
	Mode    params.SearchType
	Key     QueryKey
	Message Message
	Err     error
}

func (e *QueryError) Error() string { return e.Message.Text + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// IsCancellation reports whether err is an aborted fetch. Such errors are
// never mapped to a user message.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrSuperseded)
}

// statusError is implemented by transport errors that carry an HTTP
// status and, optionally, the server's own message.
type statusError interface {
	error
	HTTPStatus() int
}

type serverMessager interface {
	ServerMessage() string
}

func statusOf(err error) (int, bool) {
	var se statusError
	if errors.As(err, &se) {
		return se.HTTPStatus(), true
	}
	return 0, false
}

func serverMessage(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		return strings.TrimSpace(sm.ServerMessage())
	}
	return ""
}

// =============================================================================
// Mappers
// =============================================================================

const (
	msgFetchError     = "There was an error fetching this data"
	msgUnexpected     = "An unexpected error has occurred. Please refresh the page and try again."
	msgPathNotFound   = "Path not found."
	msgNoResults      = "No results match your criteria"
	msgCypherFailed   = "An error occurred while attempting to run this query"
	msgEmptyGraph     = "The graph for this relationship is empty"
	msgUnknownRefresh = "An unknown error occurred. Please refresh the page and try again."
)

func unknownMessage(error) Message {
	return Message{Text: UnknownErrorMessage, Key: "UnknownSearchType"}
}

func nodeMessage(error) Message {
	return Message{Text: msgFetchError, Key: "NodeSearchQueryFailure"}
}

func pathfindingMessage(err error) Message {
	if status, ok := statusOf(err); ok && status == http.StatusNotFound {
		return Message{Text: msgPathNotFound, Key: "NoPathFound"}
	}
	return Message{Text: msgUnexpected, Key: "ShortestPathUnexpectedError"}
}

func cypherMessage(err error) Message {
	if errors.Is(err, params.ErrInvalidCypher) {
		return Message{Text: msgCypherFailed, Key: "CypherQueryDecodeError"}
	}
	status, ok := statusOf(err)
	switch {
	case ok && status == http.StatusNotFound:
		return Message{Text: msgNoResults, Key: "NoResultsFoundCypherQuery"}
	case ok && status >= 400 && status < 500:
		if msg := serverMessage(err); msg != "" {
			return Message{Text: msg, Key: "CypherQueryError"}
		}
	}
	return Message{Text: msgCypherFailed, Key: "CypherQueryError"}
}

func relationshipMessage(error) Message {
	return Message{Text: msgUnexpected, Key: "NodeRelationshipGraphQuery"}
}

func compositionMessage(err error) Message {
	if errors.Is(err, ErrEmptyResult) {
		return Message{Text: msgEmptyGraph, Key: "EdgeCompositionEmpty"}
	}
	return Message{Text: msgUnknownRefresh, Key: "EdgeCompositionGraphQuery"}
}

func aclInheritanceMessage(err error) Message {
	if errors.Is(err, ErrEmptyResult) {
		return Message{Text: msgEmptyGraph, Key: "ACLInheritanceEmpty"}
	}
	return Message{Text: msgUnknownRefresh, Key: "ACLInheritanceGraphQuery"}
}
