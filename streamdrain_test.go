package streamdrain

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_Drainer(t *testing.T) {
	d := New(strings.NewReader("a\nb\nc\n"), StreamStdout, WithMaxLines(0))
	d.Start()
	assert.Equal(t, []string{"a", "b", "c"}, d.Content())
}

func TestFacade_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	res, err := Run(context.Background(), Config{Path: "/bin/sh", Args: []string{"-c", "echo hi; echo bye >&2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, res.Stdout)
	assert.Equal(t, []string{"bye"}, res.Stderr)
}

func TestFacade_StartMetrics(t *testing.T) {
	stop, err := StartMetrics("127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, stop())
}
