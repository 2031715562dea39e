package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// RunLog is the log sink for a single invocation: one logger writing to both
// the console and a timestamped file. It must be closed after the run.
type RunLog struct {
	Logger *log.Logger
	Path   string
	file   *os.File
}

// OpenRunLog creates playlist_splitter_<stamp>.log in dir and returns a
// [RunLog] whose logger tees to console and that file.
func OpenRunLog(dir, stamp string, console io.Writer) (*RunLog, error) {
	if console == nil {
		console = os.Stderr
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("playlist_splitter_%s.log", stamp))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &RunLog{
		Logger: NewLogger(io.MultiWriter(console, f)),
		Path:   path,
		file:   f,
	}, nil
}

// Close flushes and closes the log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return r.file.Close()
}
