package console

import "fmt"

const (
	StreamAuto   = "auto"
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Config holds console sink options.
type Config struct {
	// Stream picks the terminal stream: "auto" mirrors each record to the
	// stream it was captured from, "stdout"/"stderr" send everything to one.
	Stream string `mapstructure:"stream"`
	// Prefix writes "<stream>: " before every line.
	Prefix bool `mapstructure:"prefix"`
}

// Validate ensures the console sink configuration is correct when used.
func (c Config) Validate() error {
	switch c.Stream {
	case "", StreamAuto, StreamStdout, StreamStderr:
		return nil
	}
	return fmt.Errorf("sink.console.stream must be 'auto', 'stdout' or 'stderr'")
}
