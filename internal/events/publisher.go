package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
)

// DefaultStreamPrefix is used when no prefix is configured.
const DefaultStreamPrefix = "wildmind:events"

// Publisher appends drained records to one Redis stream per aggregate.
type Publisher struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// NewPublisher connects to Redis at addr, which is either host:port or a
// redis:// URL.
//
// Precondition: addr must be non-empty.
// Postcondition: returns an error if the address cannot be parsed or the
// server does not answer PING.
func NewPublisher(ctx context.Context, addr, prefix string, logger *zap.Logger) (*Publisher, error) {
	if addr == "" {
		return nil, fmt.Errorf("events.NewPublisher: addr must not be empty")
	}
	opt := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("events.NewPublisher: parsing redis url: %w", err)
		}
		opt = parsed
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("events.NewPublisher: connecting to redis: %w", err)
	}
	if prefix == "" {
		prefix = DefaultStreamPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connected to redis for event streams", zap.String("addr", opt.Addr), zap.String("prefix", prefix))
	return &Publisher{rdb: rdb, prefix: prefix, logger: logger}, nil
}

// StreamKey returns the stream name holding aggregate's events.
func (p *Publisher) StreamKey(aggregate string) string {
	return p.prefix + ":" + aggregate
}

// Publish writes records with a single pipelined round trip.
//
// Postcondition: on success every record is appended to its aggregate's
// stream in the given order.
func (p *Publisher) Publish(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	pipe := p.rdb.Pipeline()
	for _, rec := range records {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.StreamKey(rec.Aggregate),
			Values: fields(rec),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Error("publishing events", zap.Int("count", len(records)), zap.Error(err))
		return fmt.Errorf("events.Publish: %w", err)
	}
	p.logger.Debug("published events", zap.Int("count", len(records)))
	return nil
}

// Close releases the connection pool.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

func fields(rec Record) map[string]interface{} {
	e := rec.Event
	f := map[string]interface{}{
		"id":    rec.ID.String(),
		"seq":   strconv.Itoa(rec.Sequence),
		"at":    rec.At.UTC().Format(time.RFC3339Nano),
		"kind":  string(e.Kind),
		"actor": e.ActorID,
	}
	switch e.Kind {
	case behavior.EventStateChanged:
		f["from"] = e.From.String()
		f["to"] = e.To.String()
	case behavior.EventStuck:
		f["failures"] = strconv.Itoa(e.Failures)
	}
	if e.TargetID != "" {
		f["target"] = e.TargetID
	}
	if e.Position != nil {
		f["position"] = e.Position.String()
	}
	return f
}
