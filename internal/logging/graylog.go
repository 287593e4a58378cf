package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler dials a GELF UDP endpoint and returns a JSON handler
// writing to it. The returned writer must be closed by the caller.
func NewGraylogHandler(address, level string) (slog.Handler, *gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	return slog.NewJSONHandler(w, handlerOptions(level)), w, nil
}
