package kvdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	ErrorsKeyNotExists = errors.New("key not exists")
)

const (
	BBOLTDB_CURSOR_BUCKET = "streamCursor"
)

// Checkpoint is the last published position of one consumed stream.
type Checkpoint struct {
	Stream    string    `msgpack:"stream"`
	ID        string    `msgpack:"id"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

type KVDB struct {
	db *bbolt.DB
	sync.Mutex
}

func NewKVDB(db *bbolt.DB) (*KVDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BBOLTDB_CURSOR_BUCKET))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", BBOLTDB_CURSOR_BUCKET, err)
	}

	return &KVDB{db,
		sync.Mutex{}}, nil
}

func (db *KVDB) PutCheckpoint(cp Checkpoint) error {
	db.Lock()
	defer db.Unlock()

	cpBytes, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("error when marshalling checkpoint: %w", err)
	}

	return db.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_CURSOR_BUCKET))
		return b.Put([]byte(cp.Stream), cpBytes)
	})
}

func (db *KVDB) GetCheckpoint(stream string) (cp Checkpoint, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_CURSOR_BUCKET))
		cpBytes := b.Get([]byte(stream))
		if cpBytes == nil {
			return ErrorsKeyNotExists
		}
		// cpBytes is only valid inside the transaction
		if err := msgpack.Unmarshal(cpBytes, &cp); err != nil {
			return fmt.Errorf("error when unmarshalling checkpoint: %w", err)
		}
		return nil
	})
	return
}

// StreamCursor persists the consumer cursor of one stream.
type StreamCursor struct {
	kv     *KVDB
	stream string
	now    func() time.Time
}

func NewStreamCursor(kv *KVDB, stream string) *StreamCursor {
	return &StreamCursor{
		kv:     kv,
		stream: stream,
		now:    time.Now,
	}
}

// Load returns "" when the stream was never checkpointed.
func (c *StreamCursor) Load(context.Context) (string, error) {
	cp, err := c.kv.GetCheckpoint(c.stream)
	if errors.Is(err, ErrorsKeyNotExists) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cp.ID, nil
}

func (c *StreamCursor) Save(_ context.Context, cursor string) error {
	return c.kv.PutCheckpoint(Checkpoint{
		Stream:    c.stream,
		ID:        cursor,
		UpdatedAt: c.now(),
	})
}
