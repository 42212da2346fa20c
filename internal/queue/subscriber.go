package queue

import (
	"go.uber.org/zap"
)

// StartLifecycleSubscriber routes lifecycle events from the queue into
// the supplied handler. A malformed payload is dropped rather than
// retried; handler errors propagate so the queue's retry policy applies.
func StartLifecycleSubscriber(q Queue, logger *zap.Logger, handle func(ev LifecycleEvent) error) {
	go func() {
		err := q.Subscribe(TopicLifecycleEvents, func(payload any) error {
			ev, ok := payload.(LifecycleEvent)
			if !ok {
				logger.Warn("invalid lifecycle payload",
					zap.String("topic", TopicLifecycleEvents),
				)
				return nil
			}
			return handle(ev)
		})
		if err != nil {
			logger.Error("failed to subscribe",
				zap.String("topic", TopicLifecycleEvents),
				zap.Error(err),
			)
		}
	}()
}
