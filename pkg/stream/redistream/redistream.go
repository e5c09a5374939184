package redistream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/stream"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

func Open(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
}

// Source reads a redis stream one entry at a time with XREAD.
type Source struct {
	client *redis.Client
	stream string
	block  time.Duration
}

// NewSource waits up to block for a new entry on every read.
func NewSource(client *redis.Client, streamName string, block time.Duration) *Source {
	return &Source{
		client: client,
		stream: streamName,
		block:  block,
	}
}

func (s *Source) Read(ctx context.Context, after string) (stream.Record, bool, error) {
	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, after},
		Count:   1,
		Block:   s.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return stream.Record{}, false, nil
	}
	if err != nil {
		return stream.Record{}, false, fmt.Errorf("xread %s: %w", s.stream, err)
	}

	for _, xs := range res {
		if len(xs.Messages) > 0 {
			msg := xs.Messages[0]
			return stream.Record{ID: msg.ID, Fields: toFields(msg.Values)}, true, nil
		}
	}
	return stream.Record{}, false, nil
}

// Sink appends entries to a redis stream with XADD.
type Sink struct {
	client *redis.Client
	stream string
}

func NewSink(client *redis.Client, streamName string) *Sink {
	return &Sink{
		client: client,
		stream: streamName,
	}
}

func (s *Sink) Publish(ctx context.Context, fields map[string]string) (string, error) {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return id, nil
}

// toFields flattens XREAD values, which the client returns as strings.
func toFields(values map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		switch v := v.(type) {
		case string:
			fields[k] = v
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields
}
