package events

// Config holds configuration for import event publishing.
type Config struct {
	// NatsURL is the NATS server to publish to. Empty disables publishing.
	NatsURL string `mapstructure:"nats_url" default:""`
	// Subject is the base subject; events are published to "<subject>.<event>".
	Subject string `mapstructure:"subject" default:"classroom.imports"`
}
