package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smaltravel/findajob/internal/models"
)

// Task is the unit of work a Broker carries: one run's submit request,
// identified by the run id already persisted to the result store.
type Task struct {
	RunID   string               `json:"run_id"`
	Request models.SearchRequest `json:"request"`
}

// Broker is the queue of spec.md §5: "the system's only cross-process
// synchronization primitive; result storage is separate." Enqueue must
// return promptly; Dequeue blocks until a task is available or ctx is
// cancelled.
type Broker interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (*Task, error)
	Close() error
}

// RedisBroker implements Broker against a Redis list, matching the URL
// form of spec.md §6 (redis://host:port/db).
type RedisBroker struct {
	client    *redis.Client
	queueName string
}

// NewRedisBroker connects to a Redis broker given its URL, e.g.
// redis://localhost:6379/0.
func NewRedisBroker(brokerURL, queueName string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url %q: %w", brokerURL, err)
	}
	client := redis.NewClient(opts)
	if queueName == "" {
		queueName = "findajob:runs"
	}
	return &RedisBroker{client: client, queueName: queueName}, nil
}

// Enqueue JSON-serializes task and pushes it onto the queue's head; the
// serializer is JSON per spec.md §6.
func (b *RedisBroker) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task for run %s: %w", task.RunID, err)
	}
	if err := b.client.LPush(ctx, b.queueName, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task for run %s: %w", task.RunID, err)
	}
	return nil
}

// Dequeue blocks on the queue's tail until a task arrives or ctx is done.
func (b *RedisBroker) Dequeue(ctx context.Context) (*Task, error) {
	result, err := b.client.BRPop(ctx, 0, b.queueName).Result()
	if err != nil {
		return nil, err
	}
	// BRPop returns [key, value]; the payload is the second element.
	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dequeued task: %w", err)
	}
	return &task, nil
}

// Close releases the underlying Redis connection pool.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// dequeueLoopDelay bounds how long a worker waits after a transient
// Dequeue error before retrying, to avoid a hot loop against a broker
// that is briefly unreachable.
const dequeueLoopDelay = 2 * time.Second
