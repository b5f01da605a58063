package utils

import (
	"io"

	"github.com/MrSnakeDoc/daylog/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup of read-only handles.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs a failure under name.
// Use where a lost close error would hide lost writes.
func MustClose(c io.Closer, name string, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", name), logger.Error(err))
	}
}
