package stream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"

	"go.uber.org/zap"
)

// StartCursor is the beginning-of-stream position.
const StartCursor = "0-0"

type State int32

const (
	Waiting State = iota
	Processing
	Publishing
	Backoff
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Processing:
		return "PROCESSING"
	case Publishing:
		return "PUBLISHING"
	case Backoff:
		return "BACKOFF"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Record is one stream entry.
type Record struct {
	ID     string
	Fields map[string]string
}

// Source reads the first record positioned after the given cursor. ok is false when
// nothing arrived before the source's wait deadline.
type Source interface {
	Read(ctx context.Context, after string) (rec Record, ok bool, err error)
}

// Sink appends a record and returns the id it was stored under.
type Sink interface {
	Publish(ctx context.Context, fields map[string]string) (string, error)
}

// CursorStore keeps the position of the last published record.
type CursorStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, cursor string) error
}

type Enricher interface {
	Enrich(lat, lon float64, city string, radiusM float64) (datastructure.EnrichmentResult, error)
}

// Observer receives pipeline events, e.g. for metrics.
type Observer interface {
	StateChanged(s State)
	Processed(d time.Duration)
	Failed()
	DeadLettered()
}

type nopObserver struct{}

func (nopObserver) StateChanged(State)     {}
func (nopObserver) Processed(time.Duration) {}
func (nopObserver) Failed()                 {}
func (nopObserver) DeadLettered()           {}

type Config struct {
	Radius  float64
	Backoff time.Duration
	// MaxAttempts > 0 moves a record to the dead-letter sink after that many consecutive
	// failures. 0 retries forever.
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		Radius:  500,
		Backoff: time.Second,
	}
}

type Option func(*Pipeline)

func WithDeadLetter(sink Sink) Option {
	return func(p *Pipeline) {
		p.deadLetter = sink
	}
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Pipeline) {
		p.sleep = sleep
	}
}

// Pipeline consumes raw records one at a time, enriches them and publishes the result.
// The cursor only moves past a record once its enriched copy has been published, so a crash
// in between redelivers it.
type Pipeline struct {
	log        *zap.Logger
	source     Source
	sink       Sink
	cursors    CursorStore
	engine     Enricher
	cfg        Config
	deadLetter Sink
	observer   Observer
	sleep      func(ctx context.Context, d time.Duration) error

	state  atomic.Int32
	cursor string

	failedID string
	attempts int
}

func NewPipeline(log *zap.Logger, source Source, sink Sink, cursors CursorStore, engine Enricher,
	cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:      log,
		source:   source,
		sink:     sink,
		cursors:  cursors,
		engine:   engine,
		cfg:      cfg,
		observer: nopObserver{},
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.setState(Waiting)
	return p
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Cursor returns the id of the last published record.
func (p *Pipeline) Cursor() string {
	return p.cursor
}

// Run loops until ctx is cancelled. Per-record failures never end the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	cursor, err := p.cursors.Load(ctx)
	if err != nil {
		return fmt.Errorf("load stream cursor: %w", err)
	}
	if cursor == "" {
		cursor = StartCursor
	}
	p.cursor = cursor
	p.log.Info("stream enricher started", zap.String("cursor", cursor))

	for ctx.Err() == nil {
		if err := p.Step(ctx); err != nil && ctx.Err() == nil {
			p.setState(Backoff)
			p.log.Info("stream enricher backing off", zap.Duration("backoff", p.cfg.Backoff))
			if err := p.sleep(ctx, p.cfg.Backoff); err != nil {
				break
			}
		}
	}

	p.log.Info("stream enricher stopped", zap.String("cursor", p.cursor))
	return nil
}

// Step handles at most one record: it waits for the next one, enriches it and publishes it.
// A nil error with no record means the wait timed out.
func (p *Pipeline) Step(ctx context.Context) error {
	p.setState(Waiting)
	rec, ok, err := p.source.Read(ctx, p.cursor)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Error("stream read failed", zap.String("cursor", p.cursor), zap.Error(err))
		return err
	}
	if !ok {
		return nil
	}
	p.log.Debug("stream record received", zap.String("id", rec.ID))

	start := time.Now()
	err = p.handle(ctx, rec)
	if err == nil {
		p.observer.Processed(time.Since(start))
		p.advance(ctx, rec.ID)
		p.failedID, p.attempts = "", 0
		return nil
	}

	p.observer.Failed()
	p.log.Error("stream record failed", zap.String("id", rec.ID), zap.Error(err))

	if rec.ID != p.failedID {
		p.failedID, p.attempts = rec.ID, 0
	}
	p.attempts++
	if p.cfg.MaxAttempts > 0 && p.deadLetter != nil && p.attempts >= p.cfg.MaxAttempts {
		if dlqErr := p.sendDeadLetter(ctx, rec, err); dlqErr != nil {
			p.log.Error("dead letter publish failed", zap.String("id", rec.ID), zap.Error(dlqErr))
			return errors.Join(err, dlqErr)
		}
		p.advance(ctx, rec.ID)
		p.failedID, p.attempts = "", 0
		return nil
	}
	return err
}

func (p *Pipeline) handle(ctx context.Context, rec Record) error {
	p.setState(Processing)
	q, err := ParseEvent(rec.Fields)
	if err != nil {
		return err
	}

	res, err := p.engine.Enrich(q.Lat, q.Lon, q.City, p.cfg.Radius)
	if err != nil {
		return err
	}

	out, err := MergeEvent(rec.Fields, q, res)
	if err != nil {
		return err
	}

	p.setState(Publishing)
	outID, err := p.sink.Publish(ctx, out)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	p.log.Info("stream record published",
		zap.String("id", rec.ID),
		zap.String("out_id", outID),
		zap.String("district", res.District),
	)
	return nil
}

// advance moves the cursor past id. A failed checkpoint only costs a redelivery after restart.
func (p *Pipeline) advance(ctx context.Context, id string) {
	p.cursor = id
	if err := p.cursors.Save(ctx, id); err != nil {
		p.log.Warn("stream cursor checkpoint failed", zap.String("cursor", id), zap.Error(err))
	}
}

func (p *Pipeline) sendDeadLetter(ctx context.Context, rec Record, cause error) error {
	fields := make(map[string]string, len(rec.Fields)+3)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	fields["source_id"] = rec.ID
	fields["error"] = cause.Error()
	fields["attempts"] = strconv.Itoa(p.attempts)

	id, err := p.deadLetter.Publish(ctx, fields)
	if err != nil {
		return err
	}
	p.observer.DeadLettered()
	p.log.Warn("stream record dead-lettered",
		zap.String("id", rec.ID),
		zap.String("dead_letter_id", id),
		zap.Int("attempts", p.attempts),
	)
	return nil
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	p.observer.StateChanged(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
