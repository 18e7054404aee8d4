package config

import (
	"fmt"
	"os"

	"github.com/cbodonnell/netmove/pkg/log"
)

// NewLogger builds the process logger described by the config.
func (c LogConfig) NewLogger() (*log.Logger, log.LogLevel, error) {
	level, err := log.ParseLogLevel(c.Level)
	if err != nil {
		return nil, level, fmt.Errorf("failed to parse log level: %v", err)
	}

	var file *log.FileOptions
	if c.File != "" {
		file = &log.FileOptions{
			Path:       c.File,
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
		}
	}

	return log.NewWithFile(os.Stdout, file, level), level, nil
}
