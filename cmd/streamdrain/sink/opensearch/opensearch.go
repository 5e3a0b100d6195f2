package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
	osclient "github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchutil"
)

const sinkName = "opensearch"

type Sink struct {
	batcher *common.Batcher
	client  *osclient.Client
	index   string
	host    string
	labels  map[string]string
}

func New(cfg Config, host string, labels map[string]string, batchSize int, batchInterval time.Duration, f common.Filter) (common.Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientCfg := osclient.Config{Addresses: []string{cfg.URL}}
	if cfg.User != "" {
		clientCfg.Username = cfg.User
		clientCfg.Password = cfg.Password
	}
	cli, err := osclient.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		batcher: common.NewBatcher(sinkName, batchSize, batchInterval, f),
		client:  cli,
		index:   cfg.Index,
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
	return nil
}

// document is the JSON body indexed for one record.
func (s *Sink) document(rec common.Record) map[string]any {
	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return map[string]any{
		"@timestamp": ts.UTC().Format(time.RFC3339Nano),
		"message":    rec.Line,
		"stream":     rec.Stream,
		"seq":        rec.Seq,
		"run_id":     rec.RunID,
		"host":       s.host,
		"labels":     s.labels,
	}
}

func (s *Sink) flush(batch []common.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client: s.client,
		Index:  s.index,
	})
	if err != nil {
		return err
	}
	for _, rec := range batch {
		b, err := json.Marshal(s.document(rec))
		if err != nil {
			return err
		}
		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(b),
			OnFailure: func(ctx context.Context, item opensearchutil.BulkIndexerItem, resp opensearchutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					slog.Error("opensearch bulk item error", "error", err)
					return
				}
				slog.Error("opensearch bulk item failed", "status", resp.Status, "error", resp.Error)
			},
		})
		if err != nil {
			return err
		}
	}
	if err := bi.Close(ctx); err != nil {
		return err
	}
	if stats := bi.Stats(); stats.NumFailed > 0 {
		return fmt.Errorf("opensearch bulk failed items: %d", stats.NumFailed)
	}
	return nil
}
