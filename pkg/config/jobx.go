package config

import "time"

// JobxConfig configures the background job queue.
type JobxConfig struct {
	Concurrency       int           `env:"JOBX_CONCURRENCY" envDefault:"4"`
	Queues            []string      `env:"JOBX_QUEUES" envDefault:"default" envSeparator:","`
	PollInterval      time.Duration `env:"JOBX_POLL_INTERVAL" envDefault:"1s"`
	ShutdownTimeout   time.Duration `env:"JOBX_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	DequeueTimeout    time.Duration `env:"JOBX_DEQUEUE_TIMEOUT" envDefault:"5s"`
	DefaultRetryDelay time.Duration `env:"JOBX_DEFAULT_RETRY_DELAY" envDefault:"30s"`
	MaxRetries        int           `env:"JOBX_MAX_RETRIES" envDefault:"3"`
}
