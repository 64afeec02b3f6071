package ports

import (
	"context"
	"time"

	"waterdist/internal/core/domain/model/outbox"
)

// OutboxRepository stores side-effect messages next to the state change that produced them.
type OutboxRepository interface {
	Add(ctx context.Context, message *outbox.Message) error

	// ClaimDue locks up to limit pending messages with next_attempt_at <= now,
	// skipping rows another dispatcher already holds.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*outbox.Message, error)

	Update(ctx context.Context, message *outbox.Message) error
}
