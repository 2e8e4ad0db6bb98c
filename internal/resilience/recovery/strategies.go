package recovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/remote"
	"github.com/vietddude/lifeline/internal/resilience/connectivity"
	"github.com/vietddude/lifeline/internal/resilience/fallback"
)

// Well-known partial data keys shared with the failure sites.
const (
	KeyPartialText      = "partial_text"
	KeyRetrievedContext = "retrieved_context"
	KeyTone             = "tone"
)

// simplifiedInputLimit caps the payload of a simplified retry.
const simplifiedInputLimit = 200

// AssetSelector is the slice of the fallback selector the strategies need.
type AssetSelector interface {
	Select(ctx context.Context, contextTag string, opts fallback.Options) fallback.Selection
}

// Enqueuer is the slice of the offline queue the strategies need.
type Enqueuer interface {
	Enqueue(op *domain.OfflineOperation) (string, error)
}

// -----------------------------------------------------------------------------
// complete partial output
// -----------------------------------------------------------------------------

// CompletePartial finishes a non-trivial partial response deterministically.
// It makes no remote call and cannot fail for connectivity reasons.
type CompletePartial struct {
	priority int
}

// NewCompletePartial creates the strategy at the given priority.
func NewCompletePartial(priority int) *CompletePartial {
	return &CompletePartial{priority: priority}
}

func (s *CompletePartial) Name() string             { return "complete partial output" }
func (s *CompletePartial) Priority() int            { return s.priority }
func (s *CompletePartial) MaxAttempts() int         { return 1 }
func (s *CompletePartial) BaseDelay() time.Duration { return 0 }

func (s *CompletePartial) AppliesTo(fctx *domain.FailureContext) bool {
	return len(partialText(fctx)) >= 10
}

func (s *CompletePartial) Execute(
	ctx context.Context,
	fctx *domain.FailureContext,
) (*domain.RecoveryResult, error) {
	text := strings.TrimSpace(partialText(fctx))
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") &&
		!strings.HasSuffix(text, "?") {
		text += "."
	}
	text += " I lost the connection partway through, so let me know if you'd like me to pick this back up."

	return &domain.RecoveryResult{
		Success:      true,
		UsedFallback: true,
		Data: map[string]any{
			"response": text,
			"source":   "partial",
		},
	}, nil
}

func partialText(fctx *domain.FailureContext) string {
	text, _ := fctx.PartialData[KeyPartialText].(string)
	return strings.TrimSpace(text)
}

// -----------------------------------------------------------------------------
// derive from retrieved context
// -----------------------------------------------------------------------------

// DeriveFromContext builds a response purely from previously-fetched
// retrieval results carried in the failure context.
type DeriveFromContext struct {
	priority int
}

// NewDeriveFromContext creates the strategy at the given priority.
func NewDeriveFromContext(priority int) *DeriveFromContext {
	return &DeriveFromContext{priority: priority}
}

func (s *DeriveFromContext) Name() string             { return "derive from retrieved context" }
func (s *DeriveFromContext) Priority() int            { return s.priority }
func (s *DeriveFromContext) MaxAttempts() int         { return 1 }
func (s *DeriveFromContext) BaseDelay() time.Duration { return 0 }

func (s *DeriveFromContext) AppliesTo(fctx *domain.FailureContext) bool {
	return len(retrievedContext(fctx)) > 0
}

func (s *DeriveFromContext) Execute(
	ctx context.Context,
	fctx *domain.FailureContext,
) (*domain.RecoveryResult, error) {
	snippets := retrievedContext(fctx)

	var b strings.Builder
	b.WriteString("Here's what I can tell you from what I already found: ")
	for i, snippet := range snippets {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(snippet))
		if i == 2 {
			break
		}
	}

	return &domain.RecoveryResult{
		Success:      true,
		UsedFallback: true,
		Data: map[string]any{
			"response": b.String(),
			"source":   "retrieved_context",
		},
	}, nil
}

func retrievedContext(fctx *domain.FailureContext) []string {
	switch v := fctx.PartialData[KeyRetrievedContext].(type) {
	case []string:
		return nonEmpty(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return nonEmpty(out)
	case string:
		return nonEmpty([]string{v})
	}
	return nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// retry with simplified input
// -----------------------------------------------------------------------------

// RetrySimplified reissues the original remote call with a normalized,
// shortened payload. Only eligible while not offline, on the first attempt,
// and for retryable error kinds.
type RetrySimplified struct {
	priority int
	remote   remote.Client
	conn     connectivity.Source
	retry    RetryConfig
}

// NewRetrySimplified creates the strategy at the given priority.
func NewRetrySimplified(
	priority int,
	client remote.Client,
	conn connectivity.Source,
	retry RetryConfig,
) *RetrySimplified {
	return &RetrySimplified{priority: priority, remote: client, conn: conn, retry: retry}
}

func (s *RetrySimplified) Name() string             { return "retry with simplified input" }
func (s *RetrySimplified) Priority() int            { return s.priority }
func (s *RetrySimplified) MaxAttempts() int         { return s.retry.MaxAttempts }
func (s *RetrySimplified) BaseDelay() time.Duration { return s.retry.InitialDelay }

func (s *RetrySimplified) AppliesTo(fctx *domain.FailureContext) bool {
	if s.conn.IsOffline() || fctx.AttemptCount >= 2 {
		return false
	}
	if strings.TrimSpace(fctx.UserInput) == "" {
		return false
	}
	if fctx.LastError != nil && !fctx.LastError.Kind.Retryable() {
		return false
	}
	switch fctx.Operation {
	case domain.OperationChat, domain.OperationImage, domain.OperationSearch:
		return true
	}
	return false
}

func (s *RetrySimplified) Execute(
	ctx context.Context,
	fctx *domain.FailureContext,
) (*domain.RecoveryResult, error) {
	fctx.AttemptCount++

	delay := s.retry.Delay(fctx.AttemptCount - 2)
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	input := SimplifyInput(fctx.UserInput)

	switch fctx.Operation {
	case domain.OperationChat:
		res, err := s.remote.ChatComplete(ctx, input, fctx.ConversationID)
		if err != nil {
			return nil, err
		}
		return &domain.RecoveryResult{
			Success: true,
			Data: map[string]any{
				"response":        res.Response,
				"image_url":       res.ImageURL,
				"conversation_id": res.ConversationID,
			},
		}, nil

	case domain.OperationImage:
		res, err := s.remote.GenerateImage(ctx, input, "")
		if err != nil {
			return nil, err
		}
		return &domain.RecoveryResult{
			Success: true,
			Data: map[string]any{
				"image_url": res.ImageURL,
				"image_id":  res.ImageID,
			},
		}, nil

	case domain.OperationSearch:
		res, err := s.remote.Search(ctx, input)
		if err != nil {
			return nil, err
		}
		return &domain.RecoveryResult{
			Success: true,
			Data: map[string]any{
				"query":  res.Query,
				"vector": res.Vector,
			},
		}, nil
	}

	return nil, fmt.Errorf("operation %s cannot be retried", fctx.Operation)
}

// SimplifyInput normalizes whitespace and truncates the payload for a
// lighter retry.
func SimplifyInput(input string) string {
	simplified := strings.Join(strings.Fields(input), " ")
	if len(simplified) > simplifiedInputLimit {
		simplified = simplified[:simplifiedInputLimit]
		if idx := strings.LastIndex(simplified, " "); idx > 0 {
			simplified = simplified[:idx]
		}
	}
	return simplified
}

// -----------------------------------------------------------------------------
// queue for later
// -----------------------------------------------------------------------------

// QueueForLater parks the operation in the offline queue while
// connectivity is absent and acknowledges it to the caller.
type QueueForLater struct {
	priority int
	queue    Enqueuer
	conn     connectivity.Source
}

// NewQueueForLater creates the strategy at the given priority.
func NewQueueForLater(priority int, queue Enqueuer, conn connectivity.Source) *QueueForLater {
	return &QueueForLater{priority: priority, queue: queue, conn: conn}
}

func (s *QueueForLater) Name() string             { return "queue for later" }
func (s *QueueForLater) Priority() int            { return s.priority }
func (s *QueueForLater) MaxAttempts() int         { return 1 }
func (s *QueueForLater) BaseDelay() time.Duration { return 0 }

func (s *QueueForLater) AppliesTo(fctx *domain.FailureContext) bool {
	return s.conn.IsOffline()
}

func (s *QueueForLater) Execute(
	ctx context.Context,
	fctx *domain.FailureContext,
) (*domain.RecoveryResult, error) {
	payload := map[string]any{
		"user_input":      fctx.UserInput,
		"conversation_id": fctx.ConversationID,
	}
	for k, v := range fctx.PartialData {
		payload[k] = v
	}

	priority := domain.PriorityMedium
	if fctx.Operation == domain.OperationSync {
		priority = domain.PriorityHigh
	}

	id, err := s.queue.Enqueue(&domain.OfflineOperation{
		Type:     fctx.Operation,
		Payload:  payload,
		Priority: priority,
	})
	if err != nil {
		return nil, err
	}

	return &domain.RecoveryResult{
		Success:      true,
		UsedFallback: true,
		Data: map[string]any{
			"queued":       true,
			"operation_id": id,
			"response":     "You're offline right now. I saved this and will finish it once the connection is back.",
		},
	}, nil
}

// -----------------------------------------------------------------------------
// fallback message
// -----------------------------------------------------------------------------

var defaultMessages = map[domain.OperationType]string{
	domain.OperationChat:    "I'm having trouble reaching the assistant right now. Give me a moment and try again — I'll keep your place.",
	domain.OperationImage:   "I couldn't render a fresh image for this, so here's one from the collection instead.",
	domain.OperationSearch:  "Search is unavailable at the moment. Try again shortly, or rephrase and I'll do my best from memory.",
	domain.OperationStorage: "I couldn't save that just now. It's kept locally and will sync once things recover.",
	domain.OperationSync:    "Syncing is paused while the connection recovers. Your pending items are safe.",
}

// FallbackMessage returns a canned, context-appropriate message paired with
// a fallback asset. Always applicable, never fails; registered at the
// lowest priority so it terminates every exhausted search.
type FallbackMessage struct {
	priority int
	selector AssetSelector
	messages map[domain.OperationType]string
}

// NewFallbackMessage creates the strategy at the given priority.
func NewFallbackMessage(priority int, selector AssetSelector) *FallbackMessage {
	return &FallbackMessage{
		priority: priority,
		selector: selector,
		messages: defaultMessages,
	}
}

func (s *FallbackMessage) Name() string                               { return "fallback message" }
func (s *FallbackMessage) Priority() int                              { return s.priority }
func (s *FallbackMessage) MaxAttempts() int                           { return 1 }
func (s *FallbackMessage) BaseDelay() time.Duration                   { return 0 }
func (s *FallbackMessage) AppliesTo(fctx *domain.FailureContext) bool { return true }

func (s *FallbackMessage) Execute(
	ctx context.Context,
	fctx *domain.FailureContext,
) (*domain.RecoveryResult, error) {
	msg, ok := s.messages[fctx.Operation]
	if !ok {
		msg = "Something went wrong upstream, but I'm still here. Try again in a moment."
	}

	sel := s.selector.Select(ctx, ContextTag(fctx), fallback.Options{})

	return &domain.RecoveryResult{
		Success:      true,
		UsedFallback: true,
		Data: map[string]any{
			"response":    msg,
			"image_url":   sel.URL,
			"asset_label": sel.Label,
			"asset_tier":  string(sel.Tier),
		},
	}, nil
}

// ContextTag extracts the asset context tag from the failure context: an
// explicit tone in the partial data wins, otherwise "error".
func ContextTag(fctx *domain.FailureContext) string {
	if tone, ok := fctx.PartialData[KeyTone].(string); ok && tone != "" {
		return tone
	}
	if rc, ok := fctx.PartialData["response_context"].(map[string]any); ok {
		if tone, ok := rc[KeyTone].(string); ok && tone != "" {
			return tone
		}
	}
	return "error"
}
