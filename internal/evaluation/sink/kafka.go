package sink

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/qac-evaluator/pkg/resilience"
)

// Publisher is the part of kafka.Producer the sink uses.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
	Close() error
}

// ResultMessage is the JSON payload published per result.
type ResultMessage struct {
	RunID          string   `json:"run_id"`
	Seq            int      `json:"seq"`
	PrefixLength   int      `json:"prefix_length"`
	FullQuery      string   `json:"full_query"`
	PartialQuery   string   `json:"partial_query"`
	QueryTime      string   `json:"query_time"`
	HitRank        int      `json:"hit_rank"`
	ReciprocalRank float64  `json:"reciprocal_rank"`
	Candidates     []string `json:"candidates"`
}

// Kafka accumulates results and publishes them in batches, either when the
// batch fills or when the flush interval elapses.
type Kafka struct {
	publisher     Publisher
	mu            sync.Mutex
	buffer        []kafka.Event
	batchSize     int
	flushInterval time.Duration
	retry         resilience.RetryConfig
	logger        *slog.Logger
	stop          chan struct{}
	done          chan struct{}
}

// NewKafka starts the background flush loop.
func NewKafka(publisher Publisher, batchSize int, flushInterval time.Duration) *Kafka {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	k := &Kafka{
		publisher:     publisher,
		buffer:        make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "kafka-sink"),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go k.loop()
	k.logger.Info("kafka sink started",
		"batch_size", batchSize,
		"flush_interval", flushInterval,
	)
	return k
}

func (k *Kafka) loop() {
	defer close(k.done)
	ticker := time.NewTicker(k.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := k.flush(context.Background()); err != nil {
				k.logger.Error("periodic flush failed", "error", err)
			}
		case <-k.stop:
			return
		}
	}
}

func (k *Kafka) Write(ctx context.Context, res evaluation.Result) error {
	k.mu.Lock()
	k.buffer = append(k.buffer, kafka.Event{
		Key:     partitionKey(res),
		Value:   toMessage(res),
		Headers: map[string]string{"run_id": res.RunID},
	})
	shouldFlush := len(k.buffer) >= k.batchSize
	k.mu.Unlock()

	if shouldFlush {
		return k.flush(ctx)
	}
	return nil
}

// Close stops the flush loop, publishes anything buffered and closes the
// publisher.
func (k *Kafka) Close() error {
	close(k.stop)
	<-k.done
	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	flushErr := k.flush(flushCtx)
	closeErr := k.publisher.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// BufferLen returns the number of results waiting to be published.
func (k *Kafka) BufferLen() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buffer)
}

func (k *Kafka) flush(ctx context.Context) error {
	k.mu.Lock()
	if len(k.buffer) == 0 {
		k.mu.Unlock()
		return nil
	}
	batch := k.buffer
	k.buffer = make([]kafka.Event, 0, k.batchSize)
	k.mu.Unlock()

	err := resilience.Retry(ctx, "kafka-publish", k.retry, func() error {
		return k.publisher.PublishBatch(ctx, batch)
	})
	if err != nil {
		k.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
		k.mu.Lock()
		k.buffer = append(batch, k.buffer...)
		k.mu.Unlock()
		return err
	}
	k.logger.Debug("batch flushed", "events", len(batch))
	return nil
}

func toMessage(res evaluation.Result) ResultMessage {
	candidates := make([]string, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		candidates = append(candidates, c.String())
	}
	return ResultMessage{
		RunID:          res.RunID,
		Seq:            res.Seq,
		PrefixLength:   res.PrefixLength,
		FullQuery:      res.Full,
		PartialQuery:   res.Partial,
		QueryTime:      res.Time.Format(evaluation.TimeLayout),
		HitRank:        res.HitRank,
		ReciprocalRank: res.ReciprocalRank,
		Candidates:     candidates,
	}
}

// partitionKey keeps every result for a prefix on one partition. Records
// without a prefix share a key per prefix length.
func partitionKey(res evaluation.Result) string {
	if res.Partial == "" {
		return strconv.Itoa(res.PrefixLength)
	}
	return res.Partial
}
