package recovery

import (
	"context"
	"errors"
	"strings"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// Classify maps a raw error to its error kind. Already-typed errors keep
// their kind; everything else is matched on message content, with
// RemoteUnavailable as the default for unrecognized remote failures.
func Classify(err error) domain.ErrorKind {
	if err == nil {
		return domain.KindRemoteUnavailable
	}

	var typed *domain.TypedError
	if errors.As(err, &typed) {
		return typed.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	if strings.Contains(s, "401") || strings.Contains(sLower, "unauthorized") ||
		strings.Contains(sLower, "invalid api key") ||
		strings.Contains(sLower, "incorrect api key") {
		return domain.KindUnauthorized
	}

	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit") || strings.Contains(sLower, "quota") {
		return domain.KindRateLimited
	}

	if strings.Contains(sLower, "timeout") || strings.Contains(sLower, "timed out") ||
		strings.Contains(sLower, "deadline exceeded") {
		return domain.KindTimeout
	}

	if strings.Contains(s, "400") || strings.Contains(s, "422") ||
		strings.Contains(sLower, "invalid request") ||
		strings.Contains(sLower, "validation") {
		return domain.KindValidationFailed
	}

	return domain.KindRemoteUnavailable
}

// Typed wraps an error with its classified kind, preserving an existing
// TypedError unchanged.
func Typed(err error) *domain.TypedError {
	if err == nil {
		return nil
	}
	var typed *domain.TypedError
	if errors.As(err, &typed) {
		return typed
	}
	return &domain.TypedError{Kind: Classify(err), Err: err}
}
