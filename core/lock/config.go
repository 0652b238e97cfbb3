package lock

// Config holds configuration for the per-teacher import lock.
type Config struct {
	// RedisURL selects a distributed lock when set (redis://host:6379/0).
	// An empty URL keeps locking in-process.
	RedisURL string `mapstructure:"url" default:""`
	// TTLSeconds is how long a distributed lock survives a crashed holder.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"300"`
	// WaitSeconds bounds how long Acquire waits for a busy key.
	WaitSeconds int `mapstructure:"wait_seconds" default:"30"`
}
