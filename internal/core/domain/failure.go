package domain

import "time"

// ErrorKind classifies a failed remote call. Classification drives which
// recovery strategies are eligible for the failure.
type ErrorKind string

const (
	KindRemoteUnavailable     ErrorKind = "remote_unavailable"
	KindTimeout               ErrorKind = "timeout"
	KindRateLimited           ErrorKind = "rate_limited"
	KindUnauthorized          ErrorKind = "unauthorized"
	KindValidationFailed      ErrorKind = "validation_failed"
	KindNoStrategyAvailable   ErrorKind = "no_strategy_available"
	KindSyncAlreadyInProgress ErrorKind = "sync_already_in_progress"
)

// Retryable reports whether an automatic retry strategy may act on this kind.
// Unauthorized and validation failures require user intervention.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindUnauthorized, KindValidationFailed, KindNoStrategyAvailable:
		return false
	}
	return true
}

// TypedError pairs a raw error with its classified kind.
type TypedError struct {
	Kind ErrorKind
	Err  error
}

func (e *TypedError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *TypedError) Unwrap() error {
	return e.Err
}

// FailureContext carries everything a recovery strategy needs to decide
// whether it applies and how to act. Created at the failure site and passed
// by value through the pipeline; only AttemptCount changes between retries.
type FailureContext struct {
	Operation      OperationType
	UserInput      string
	ConversationID string
	PartialData    map[string]any
	AttemptCount   int
	LastError      *TypedError
	StartTime      time.Time
}
