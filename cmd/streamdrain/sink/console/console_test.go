package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
	"github.com/stretchr/testify/assert"
)

func TestConsoleSink_AutoMirrorsStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	s := newSink(Config{Stream: StreamAuto}, &out, &errOut, 10, time.Hour, common.Filter{})

	s.Enqueue(common.Record{Stream: "stdout", Line: "line1"})
	s.Enqueue(common.Record{Stream: "stderr", Line: "oops"})
	s.Enqueue(common.Record{Stream: "stdout", Line: "line2"})
	_ = s.Stop()

	assert.Equal(t, "line1\nline2\n", out.String())
	assert.Equal(t, "oops\n", errOut.String())
}

func TestConsoleSink_SingleStreamWithPrefix(t *testing.T) {
	var out, errOut bytes.Buffer
	s := newSink(Config{Stream: StreamStderr, Prefix: true}, &out, &errOut, 1, time.Hour, common.Filter{})

	s.Enqueue(common.Record{Stream: "stdout", Line: "a"})
	s.Enqueue(common.Record{Stream: "stderr", Line: "b"})
	_ = s.Stop()

	assert.Empty(t, out.String())
	assert.Equal(t, "stdout: a\nstderr: b\n", errOut.String())
}

func TestConsoleSink_Filtered(t *testing.T) {
	var out, errOut bytes.Buffer
	s := newSink(Config{}, &out, &errOut, 10, time.Hour, common.Filter{Streams: []string{"stderr"}})

	s.Enqueue(common.Record{Stream: "stdout", Line: "hidden"})
	s.Enqueue(common.Record{Stream: "stderr", Line: "shown"})
	_ = s.Stop()

	assert.Empty(t, out.String())
	assert.Equal(t, "shown\n", errOut.String())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{Stream: "auto"}.Validate())
	assert.NoError(t, Config{Stream: "stderr"}.Validate())
	assert.Error(t, Config{Stream: "syslog"}.Validate())
}
