package logger_di

import (
	"github.com/lintang-b-s/osm-geoenrich/pkg/di/config"
	myZap "github.com/lintang-b-s/osm-geoenrich/pkg/logger/zap"

	"go.uber.org/zap"
)

func New(cfg *config.Config) (*zap.Logger, func(), error) {
	logCfg := cfg.Logger()

	err := logCfg.Validate()
	if err != nil {
		return nil, nil, err
	}

	log, err := myZap.New(logCfg)

	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = log.Sync()
	}

	return log, cleanup, nil
}
