package shopagent

import (
	"errors"
	"fmt"
)

// GeneratorErrorKind classifies generator failures so stages can record a
// meaningful error without inspecting backend-specific responses.
type GeneratorErrorKind string

const (
	KindUnauthorized      GeneratorErrorKind = "unauthorized"
	KindRateLimited       GeneratorErrorKind = "rate_limited"
	KindInsufficientQuota GeneratorErrorKind = "insufficient_quota"
	KindMalformedRequest  GeneratorErrorKind = "malformed_request"
	KindTimeout           GeneratorErrorKind = "timeout"
	KindNetwork           GeneratorErrorKind = "network"
	KindUnknown           GeneratorErrorKind = "unknown"
)

// GeneratorError wraps a failed generator call with its classification.
type GeneratorError struct {
	Kind    GeneratorErrorKind
	Message string
	Err     error
}

func (e *GeneratorError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generator %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("generator %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("generator %s", e.Kind)
}

func (e *GeneratorError) Unwrap() error { return e.Err }

// GeneratorKindOf extracts the classification from an error chain,
// defaulting to unknown.
func GeneratorKindOf(err error) GeneratorErrorKind {
	var ge *GeneratorError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// ErrPriceKeyRejected is returned by live price-lookup clients when the
// service rejects the API key. The product-mapping stage disables the live
// path for the rest of the run when it sees this.
var ErrPriceKeyRejected = errors.New("price lookup API key rejected")
