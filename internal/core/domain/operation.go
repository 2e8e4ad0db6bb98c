package domain

import "time"

// OperationType identifies which upstream call an operation maps to.
// It determines the strategy list and queue retry policy that apply.
type OperationType string

const (
	OperationChat    OperationType = "chat"
	OperationImage   OperationType = "image"
	OperationSearch  OperationType = "search"
	OperationStorage OperationType = "storage"
	OperationSync    OperationType = "sync"
)

// OperationPriority orders queued operations. Higher priority drains first.
type OperationPriority string

const (
	PriorityHigh   OperationPriority = "high"
	PriorityMedium OperationPriority = "medium"
	PriorityLow    OperationPriority = "low"
)

// Rank returns a sortable weight (higher = drained first).
func (p OperationPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// OperationStatus tracks the queue lifecycle of an offline operation.
type OperationStatus string

const (
	OperationStatusPending    OperationStatus = "pending"
	OperationStatusProcessing OperationStatus = "processing"
	OperationStatusCompleted  OperationStatus = "completed"
	OperationStatusFailed     OperationStatus = "failed"
)

// OfflineOperation is an operation that could not complete and is held for
// later replay. Owned exclusively by the offline queue.
type OfflineOperation struct {
	ID         string            `json:"id"`
	Type       OperationType     `json:"type"`
	Payload    map[string]any    `json:"payload"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	RetryCount int               `json:"retry_count"`
	MaxRetries int               `json:"max_retries"`
	Priority   OperationPriority `json:"priority"`
	Status     OperationStatus   `json:"status"`
}
