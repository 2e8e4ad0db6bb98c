package domain

import "time"

// RecoveryResult is the terminal value of a recovery run. Exactly one is
// returned per ExecuteRecovery call.
type RecoveryResult struct {
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
	Err          *TypedError    `json:"-"`
	StrategyName string         `json:"strategy_name"`
	UsedFallback bool           `json:"used_fallback"`
	RetryCount   int            `json:"retry_count"`
	Timestamp    time.Time      `json:"timestamp"`
}

// SyncResult summarizes one explicit drain of the offline queue.
type SyncResult struct {
	Success          bool          `json:"success"`
	OperationsSynced int           `json:"operations_synced"`
	OperationsFailed int           `json:"operations_failed"`
	Errors           []string      `json:"errors,omitempty"`
	Duration         time.Duration `json:"duration"`
}
