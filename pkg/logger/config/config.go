package config

import (
	"fmt"
)

// levels follow zapcore.Level
const (
	DEBUG_LEVEL = -1
	INFO_LEVEL  = 0
	WARN_LEVEL  = 1
	ERROR_LEVEL = 2
)

type Configuration struct {
	Level       int
	TimeFormat  string
	ServiceName string
}

func (c Configuration) Validate() error {
	if c.Level < DEBUG_LEVEL || c.Level > ERROR_LEVEL {
		return fmt.Errorf("invalid LOG_LEVEL %d, want %d..%d", c.Level, DEBUG_LEVEL, ERROR_LEVEL)
	}
	if c.TimeFormat == "" {
		return fmt.Errorf("LOG_TIME_FORMAT must not be empty")
	}
	return nil
}
