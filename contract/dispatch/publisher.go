package dispatch

import "context"

// RecordPublisher abstracts relaying dispatch records to an observer (a broker/bus or
// a local sink). Library users pick an adapter that maps to NATS/Kafka/RabbitMQ etc.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, rec Record, opts PublishOptions) error
}

// PublishOptions controls record publishing.
type PublishOptions struct {
	SubjectOverride string
	Headers         map[string]string
}
