package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// Kind classifies a pipeline failure
type Kind string

const (
	// KindColumnDetection means no usable name column was found. Fatal.
	KindColumnDetection Kind = "column_detection_failure"
	// KindRegistryUnavailable means the registry provider returned no data. Fatal.
	KindRegistryUnavailable Kind = "registry_unavailable"
	// KindMatchAmbiguity is resolved internally by the tie-break and never returned to callers.
	KindMatchAmbiguity Kind = "match_ambiguity"
	// KindEnrichmentFailure is a per-identifier fetch failure. Recovered as an absent entry.
	KindEnrichmentFailure Kind = "enrichment_failure"
)

type PipelineError struct {
	Kind       Kind
	Message    string
	Field      string
	Identifier string
	cause      error
}

func NewColumnDetectionFailure(msg string) *PipelineError {
	return &PipelineError{Kind: KindColumnDetection, Message: msg}
}

func NewRegistryUnavailable(msg string, cause error) *PipelineError {
	return &PipelineError{Kind: KindRegistryUnavailable, Message: msg, cause: cause}
}

func NewMatchAmbiguity(name string, candidates int) *PipelineError {
	return &PipelineError{
		Kind:    KindMatchAmbiguity,
		Message: fmt.Sprintf("%d registry records share the best name", candidates),
		Field:   name,
	}
}

func NewEnrichmentFailure(identifier string, cause error) *PipelineError {
	return &PipelineError{Kind: KindEnrichmentFailure, Message: "enrichment lookup failed", Identifier: identifier, cause: cause}
}

func (e *PipelineError) Error() string {
	path := []string{}
	if e.Field != "" {
		path = append(path, fmt.Sprintf("field '%s'", e.Field))
	}
	if e.Identifier != "" {
		path = append(path, fmt.Sprintf("identifier '%s'", e.Identifier))
	}

	msg := e.Message
	if e.cause != nil {
		msg = msg + ": " + e.cause.Error()
	}
	if len(path) == 0 {
		return msg
	}
	return strings.Join(path, " -> ") + ": " + msg
}

func (e *PipelineError) Unwrap() error {
	return e.cause
}

func (e *PipelineError) AddField(field string) *PipelineError {
	e.Field = field
	return e
}

// StatusCode maps the kind onto the HTTP status a caller sees.
func (e *PipelineError) StatusCode() int {
	switch e.Kind {
	case KindColumnDetection:
		return http.StatusUnprocessableEntity
	case KindRegistryUnavailable:
		return http.StatusServiceUnavailable
	case KindEnrichmentFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (e *PipelineError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(e.StatusCode(), e.Error()).AddMetaValue("kind", string(e.Kind)).AddMetaValue("field", e.Field)
}

// IsKind reports whether err, or anything it wraps, is a PipelineError of kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}

// AsPipelineError unwraps err into a PipelineError when it is one.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	ok := errors.As(err, &pe)
	return pe, ok
}
