package capture

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/loykin/streamdrain/internal/drainer"
	"golang.org/x/text/encoding"
)

// Config describes one command to run and how its output is drained.
type Config struct {
	// Path is an absolute path or a $PATH-relative command name.
	Path string
	Args []string
	// Dir is the working directory; empty means the caller's.
	Dir string
	// Env, when non-nil, replaces the inherited environment.
	Env []string
	// Encoding decodes child output; nil means UTF-8.
	Encoding encoding.Encoding
	// MaxLines bounds each stream's buffer; 0 keeps everything.
	MaxLines int
	// OnFailure receives drain failures; nil logs them via slog.
	OnFailure drainer.FailureFunc
}

// Validate checks the command can be resolved and the options are sane.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("capture: command path must not be empty")
	}
	if c.MaxLines < 0 {
		return fmt.Errorf("capture: max lines must be >= 0, got %d", c.MaxLines)
	}
	if c.Dir != "" {
		info, err := os.Stat(c.Dir)
		if err != nil {
			return fmt.Errorf("capture: bad working dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture: %q is not a directory", c.Dir)
		}
	}
	if _, err := exec.LookPath(c.Path); err != nil {
		return fmt.Errorf("capture: command %q not available: %w", c.Path, err)
	}
	return nil
}

func (c *Config) drainerOptions() []drainer.Option {
	opts := []drainer.Option{drainer.WithMaxLines(c.MaxLines)}
	if c.Encoding != nil {
		opts = append(opts, drainer.WithEncoding(c.Encoding))
	}
	if c.OnFailure != nil {
		opts = append(opts, drainer.WithFailureFunc(c.OnFailure))
	}
	return opts
}
