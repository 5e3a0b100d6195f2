package opensearch

import (
	"fmt"
	"time"
)

// Config holds OpenSearch sink connection settings.
type Config struct {
	URL      string `mapstructure:"url"` // http(s)://host:9200
	Index    string `mapstructure:"index"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// RetryElapsed bounds flush retries; 0 disables retrying.
	RetryElapsed time.Duration `mapstructure:"retry-elapsed"`
}

func (c Config) Validate() error {
	if c.URL == "" || c.Index == "" {
		return fmt.Errorf("sink.opensearch requires url and index")
	}
	if c.RetryElapsed < 0 {
		return fmt.Errorf("sink.opensearch.retry-elapsed must not be negative")
	}
	return nil
}
