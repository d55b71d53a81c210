package queue

import (
	"context"
	"fmt"
)

// Publisher publishes request events to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg RequestCreatedMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg RequestCreatedMessage) error

// Consumer consumes request events from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// RequestCreatedQueue carries one message per request awaiting provider fan-out.
	RequestCreatedQueue = "request.created"
)

var workQueues = []string{
	RequestCreatedQueue,
}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.request.created.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns all work queues.
func WorkQueueNames() []string {
	queues := make([]string, len(workQueues))
	copy(queues, workQueues)
	return queues
}

// DLQNames returns the dead-letter queue of every work queue.
func DLQNames() []string {
	queues := make([]string, 0, len(workQueues))
	for _, queue := range workQueues {
		queues = append(queues, DLQName(queue))
	}
	return queues
}
