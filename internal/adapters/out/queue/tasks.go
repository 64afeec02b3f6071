package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/outbox"

	"github.com/hibiken/asynq"
)

// TaskDeliverOutbox carries one outbox message to the worker.
const TaskDeliverOutbox = "outbox:deliver"

// DeliverPayload is the JSON body of a TaskDeliverOutbox task.
type DeliverPayload struct {
	MessageID     kernel.UUID  `json:"message_id"`
	Kind          outbox.Kind  `json:"kind"`
	OrderID       kernel.UUID  `json:"order_id"`
	DistributorID *kernel.UUID `json:"distributor_id,omitempty"`
	OrderStatus   string       `json:"order_status,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

func NewDeliverTask(message *outbox.Message) (*asynq.Task, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(DeliverPayload{
		MessageID:     message.ID(),
		Kind:          message.Kind(),
		OrderID:       message.OrderID(),
		DistributorID: message.DistributorID(),
		OrderStatus:   message.OrderStatus(),
		CreatedAt:     message.CreatedAt(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliverOutbox, body), nil
}

// ParseDeliverTask rebuilds the outbox message carried by task.
func ParseDeliverTask(task *asynq.Task) (*outbox.Message, error) {
	var payload DeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", TaskDeliverOutbox, err)
	}
	return outbox.RestoreMessage(outbox.Snapshot{
		ID:            payload.MessageID,
		Kind:          payload.Kind,
		OrderID:       payload.OrderID,
		DistributorID: payload.DistributorID,
		OrderStatus:   payload.OrderStatus,
		State:         outbox.StatePending,
		NextAttemptAt: payload.CreatedAt,
		CreatedAt:     payload.CreatedAt,
	})
}
