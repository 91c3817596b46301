package types

import "time"

type DLQRetryConfig struct {
	RetryInterval time.Duration
	MaxRetryCount int
	BatchSize     int
}

func DefaultDLQRetryConfig() DLQRetryConfig {
	return DLQRetryConfig{
		RetryInterval: 5 * time.Minute,
		MaxRetryCount: 3,
		BatchSize:     20,
	}
}
