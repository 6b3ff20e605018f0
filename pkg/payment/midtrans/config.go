package midtrans

import "time"

type Config struct {
	// ServerKey authenticates API calls and signs notifications. Never log it.
	ServerKey string

	SnapBaseURL string
	CoreBaseURL string

	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.ServerKey == "" || c.SnapBaseURL == "" || c.CoreBaseURL == "" {
		return ErrInvalidConfig
	}
	return nil
}
