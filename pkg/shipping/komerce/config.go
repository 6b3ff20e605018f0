package komerce

import "time"

type Config struct {
	// BaseURL of the tariff API, without trailing slash.
	BaseURL string
	APIKey  string
	// Timeout bounds every upstream call.
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.BaseURL == "" || c.APIKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
