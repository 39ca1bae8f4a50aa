package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse indicates the backend returned text that is not valid
// JSON, or JSON that does not match the expected top-level shape.
var ErrMalformedResponse = errors.New("malformed generation response")

// ErrInvalidReport indicates a single generated report failed validation in a
// way that cannot be repaired by clamping or dropping sub-entries (e.g. an
// unrecognized domain).
var ErrInvalidReport = errors.New("generated report failed validation")

// GenerationError is a failure surfaced by the generation backend. StatusCode
// and Status carry whatever the backend reported; either may be zero/empty.
type GenerationError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (status %d %s): %v", e.StatusCode, e.Status, e.Err)
	}
	return fmt.Sprintf("generation failed (status %d %s)", e.StatusCode, e.Status)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// FailureKind classifies a pipeline failure for the degradation policy.
type FailureKind int

const (
	// FailureGeneric covers anything without a more specific classification.
	FailureGeneric FailureKind = iota
	// FailureQuota is a rate-limit or billing-limit rejection.
	FailureQuota
	// FailureMalformed is unparseable or wrongly shaped backend output.
	FailureMalformed
	// FailureTimeout is an expired deadline on the backend call.
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureQuota:
		return "quota"
	case FailureMalformed:
		return "malformed"
	case FailureTimeout:
		return "timeout"
	default:
		return "generic"
	}
}

// Classify maps an error from the generation client or the normalizer to a
// failure kind. It is a stateless classifier: no retry bookkeeping happens
// here.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}

	var genErr *GenerationError
	if errors.As(err, &genErr) {
		if genErr.StatusCode == 429 || strings.Contains(genErr.Status, "RESOURCE_EXHAUSTED") {
			return FailureQuota
		}
	}
	// Quota signals sometimes arrive as plain message text rather than a
	// structured status.
	if strings.Contains(err.Error(), "429") || strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return FailureQuota
	}

	if errors.Is(err, ErrMalformedResponse) {
		return FailureMalformed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureGeneric
}
