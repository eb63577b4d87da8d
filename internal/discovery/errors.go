package discovery

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable is returned when the remote service cannot be reached
	// or rejects the credentials.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited is returned when the remote quota is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse is returned when the remote service answers with
	// missing or unexpected fields.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidCriteria is returned when search criteria are rejected before
	// any remote call is made.
	ErrInvalidCriteria = errors.New("invalid criteria")
)

// Stage names used in BatchError and logs.
const (
	StageSearch   = "search"
	StageVideos   = "videos"
	StageChannels = "channels"
	StageUpsert   = "upsert"
)

// BatchError records a failed remote call for a contiguous slice of ids.
type BatchError struct {
	Stage string
	Batch int
	IDs   []string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch %d (%d ids): %v", e.Stage, e.Batch, len(e.IDs), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// EntityError records a single entity dropped from a run.
type EntityError struct {
	Stage string
	ID    string
	Err   error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// PartialError is returned by a Source together with the records it could
// map. Errs holds one error per item that was dropped from the response.
type PartialError struct {
	Errs []error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d items dropped: %s", len(e.Errs), JoinErrors(e.Errs))
}

func (e *PartialError) Unwrap() []error {
	return e.Errs
}

// Partial returns nil when errs is empty and a *PartialError otherwise.
func Partial(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &PartialError{Errs: errs}
}

// splitPartial separates the per-item errors of a partial response from a
// call failure. ok reports whether err was a *PartialError.
func splitPartial(err error) (itemErrs []error, ok bool) {
	var partial *PartialError
	if !errors.As(err, &partial) {
		return nil, false
	}
	itemErrs = make([]error, 0, len(partial.Errs))
	for _, e := range partial.Errs {
		itemErrs = append(itemErrs, ClassifyError(e))
	}
	return itemErrs, true
}

// ClassifyError maps err onto the error taxonomy. Errors that already carry one of
// the sentinel kinds are returned unchanged; anything else is reported as a
// malformed response so that it stays observable.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrSourceUnavailable, ErrRateLimited, ErrMalformedResponse, ErrInvalidCriteria} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}

// Kind returns the taxonomy name of err, or "unknown".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrInvalidCriteria):
		return "invalid_criteria"
	}
	return "unknown"
}

func invalidCriteria(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCriteria, fmt.Sprintf(format, args...))
}

// JoinErrors renders a list of non-fatal errors for logs.
func JoinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
