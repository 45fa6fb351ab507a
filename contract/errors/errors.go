package errors

// Error codes for the dispatch contracts. Keep stable; used across adapters and the dispatcher.
const (
	ErrCodeRelayNotConfigured  = "dispatch.relay_not_configured"
	ErrCodePublishFailed       = "dispatch.publish_failed"
	ErrCodeSerializationFailed = "dispatch.serialization_failed"
	ErrCodeInvalidConfig       = "dispatch.invalid_config"
	ErrCodeBrokerPanicked      = "dispatch.broker_panicked"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrRelayNotConfigured  = Code(ErrCodeRelayNotConfigured)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrInvalidConfig       = Code(ErrCodeInvalidConfig)
	ErrBrokerPanicked      = Code(ErrCodeBrokerPanicked)
)
