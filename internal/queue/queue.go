package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicLifecycleEvents carries lifecycle events (bookings, cancellations,
// payments) from the rest of the application into the trigger dispatcher.
const TopicLifecycleEvents = "lifecycle_events"

// Queue is the minimal pub/sub surface the engine needs. The in-memory
// implementation serves single-process deployments and tests; cmd/worker
// consumes the same payloads from RabbitMQ.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// LifecycleEvent is the wire payload published on TopicLifecycleEvents.
type LifecycleEvent struct {
	Trigger       string `json:"trigger"`
	CustomName    string `json:"custom_name,omitempty"`
	AppointmentID int64  `json:"appointment_id"`
	// TestRecipient, when set, routes every matching email rule's
	// rendered content to this address instead of real clients.
	TestRecipient string `json:"test_recipient,omitempty"`
}

// InMemoryQueue is a process-local queue with bounded retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   *zap.Logger
}

func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger,
	}
}

type job struct {
	payload    any
	retryCount int
	maxRetries int
}

// Publish delivers the payload to every subscriber of the topic.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	j := job{payload: payload, maxRetries: 3}
	for _, handler := range handlers {
		go q.processJob(topic, handler, j)
	}
	return nil
}

func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, j job) {
	for j.retryCount <= j.maxRetries {
		err := handler(j.payload)
		if err == nil {
			return
		}

		j.retryCount++
		q.logger.Warn("queue job failed",
			zap.String("topic", topic),
			zap.Int("attempt", j.retryCount),
			zap.Int("max_retries", j.maxRetries),
			zap.Error(err),
		)
		if j.retryCount > j.maxRetries {
			q.logger.Error("queue job permanently failed",
				zap.String("topic", topic),
				zap.Error(err),
			)
			return
		}

		// Backoff before retrying.
		time.Sleep(time.Duration(j.retryCount*500) * time.Millisecond)
	}
}

// Subscribe registers a handler for a topic.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
