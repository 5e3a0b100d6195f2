package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
)

const sinkName = "clickhouse"

type Sink struct {
	batcher *common.Batcher
	conn    ch.Conn
	cfg     Config
	host    string
	labels  map[string]string
}

// options builds connection options for either the HTTP(S) or native protocol.
func options(cfg Config) (*ch.Options, error) {
	auth := ch.Auth{Username: cfg.User, Password: cfg.Password, Database: cfg.Database}
	if !strings.Contains(cfg.Addr, "://") {
		return &ch.Options{Addr: []string{cfg.Addr}, Auth: auth}, nil
	}
	u, err := url.Parse(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse addr: %w", err)
	}
	opts := &ch.Options{Addr: []string{u.Host}, Protocol: ch.HTTP, Auth: auth}
	if u.Scheme == "https" {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// New applies the table migration, connects, and starts the sink.
func New(cfg Config, host string, labels map[string]string, batchSize int, batchInterval time.Duration, f common.Filter) (common.Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(opts, cfg.fullTable()); err != nil {
		return nil, err
	}
	conn, err := ch.Open(opts)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		batcher: common.NewBatcher(sinkName, batchSize, batchInterval, f),
		conn:    conn,
		cfg:     cfg,
		host:    host,
		labels:  labels,
	}
	s.batcher.Start(func(batch []common.Record) error {
		return common.Retry(sinkName, cfg.RetryElapsed, func() error { return s.flush(batch) })
	})
	return s, nil
}

func (s *Sink) Enqueue(rec common.Record) { s.batcher.Enqueue(rec) }

func (s *Sink) Stop() error {
	s.batcher.Stop()
	return s.conn.Close()
}

func (s *Sink) flush(batch []common.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b, err := s.conn.PrepareBatch(ctx,
		"INSERT INTO "+s.cfg.fullTable()+" (ts, host, run_id, stream, seq, labels, message)")
	if err != nil {
		return err
	}
	for _, rec := range batch {
		ts := rec.Time
		if ts.IsZero() {
			ts = time.Now()
		}
		if err := b.Append(ts, s.host, rec.RunID, rec.Stream, uint32(rec.Seq), s.labels, rec.Line); err != nil {
			return err
		}
	}
	return b.Send()
}
