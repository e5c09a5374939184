package kv_di

import (
	"context"
	"time"

	"github.com/lintang-b-s/osm-geoenrich/pkg/di/config"
	"github.com/lintang-b-s/osm-geoenrich/pkg/kvdb"
	"github.com/lintang-b-s/osm-geoenrich/pkg/stream"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// New opens the cursor store named by CURSOR_DB, or an in-memory one when it is empty.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (stream.CursorStore, error) {
	if cfg.CursorDB == "" {
		log.Warn("CURSOR_DB is empty, stream cursor is kept in memory only")
		return stream.NewMemoryCursor(), nil
	}

	db, err := bolt.Open(cfg.CursorDB, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	bboltKV, err := kvdb.NewKVDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		cleanup()
	}()

	return kvdb.NewStreamCursor(bboltKV, cfg.RawStream), nil
}
