// Package offline holds operations that could not complete, persists them,
// retries with bounded attempts, and drains when connectivity improves.
package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/lifeline/internal/core/domain"
	"github.com/vietddude/lifeline/internal/infra/remote"
)

// Dispatcher replays one queued operation through the remote call path that
// originally failed.
type Dispatcher interface {
	Dispatch(ctx context.Context, op *domain.OfflineOperation) error
}

// RemoteDispatcher routes operations to the remote client by type.
type RemoteDispatcher struct {
	client remote.Client
}

// NewRemoteDispatcher creates a dispatcher over the remote client.
func NewRemoteDispatcher(client remote.Client) *RemoteDispatcher {
	return &RemoteDispatcher{client: client}
}

// Dispatch executes the operation against the matching upstream.
func (d *RemoteDispatcher) Dispatch(ctx context.Context, op *domain.OfflineOperation) error {
	switch op.Type {
	case domain.OperationChat:
		_, err := d.client.ChatComplete(
			ctx,
			payloadString(op, "user_input"),
			payloadString(op, "conversation_id"),
		)
		return err

	case domain.OperationImage:
		content := payloadString(op, "content")
		if content == "" {
			content = payloadString(op, "user_input")
		}
		_, err := d.client.GenerateImage(ctx, content, payloadString(op, "image_context"))
		return err

	case domain.OperationSearch:
		query := payloadString(op, "query")
		if query == "" {
			query = payloadString(op, "user_input")
		}
		_, err := d.client.Search(ctx, query)
		return err

	case domain.OperationStorage, domain.OperationSync:
		key := payloadString(op, "key")
		if key == "" {
			key = op.ID
		}
		blob, err := json.Marshal(op.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		return d.client.StoreObject(ctx, key, blob)
	}

	return fmt.Errorf("unknown operation type %s", op.Type)
}

func payloadString(op *domain.OfflineOperation, key string) string {
	s, _ := op.Payload[key].(string)
	return s
}
