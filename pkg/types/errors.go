package types

import (
	"errors"
	"fmt"
)

// FailureReason classifies why a resolution attempt failed.
type FailureReason string

const (
	// ReasonInvalidIdentifier means the input URL matched no known platform
	// identifier pattern. Terminal, never retried.
	ReasonInvalidIdentifier FailureReason = "invalid_identifier"

	// ReasonNoStreamFound means the page was fetched and readable but no
	// extraction pattern matched. Distinct from a network error.
	ReasonNoStreamFound FailureReason = "no_stream_found"

	// ReasonFetchFailed covers network errors, timeouts, and HTTP-level
	// failures while retrieving a page, API response, or upstream segment.
	ReasonFetchFailed FailureReason = "fetch_failed"

	// ReasonAllMethodsExhausted means every configured resolution strategy
	// failed. Terminal; surfaced to the caller as the final failure.
	ReasonAllMethodsExhausted FailureReason = "all_methods_exhausted"

	// ReasonGeoRestricted means the content is geographically or temporally
	// unavailable, as reported by the extractor collaborator.
	ReasonGeoRestricted FailureReason = "geo_or_availability_restricted"
)

// ResolutionError is the typed failure returned across every public resolver
// contract. Lower layers never let raw transport errors escape.
type ResolutionError struct {
	Reason FailureReason
	URL    string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.URL)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// NewResolutionError builds a typed failure for the given URL.
func NewResolutionError(reason FailureReason, url string, err error) *ResolutionError {
	return &ResolutionError{Reason: reason, URL: url, Err: err}
}

// ReasonOf extracts the failure reason from an error chain, or empty string
// when the error is not a ResolutionError.
func ReasonOf(err error) FailureReason {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
