// Package recorder writes breath frames to NDJSON files and reads them back,
// either paced in real time or all at once for offline analysis.
package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/synheart/synheart-breath/internal/models"
)

// Recorder writes frames to an NDJSON file
type Recorder struct {
	file   *os.File
	writer *bufio.Writer
	count  int
	mu     sync.Mutex
}

// NewRecorder creates a new recorder
func NewRecorder(filename string) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &Recorder{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Record writes one frame as a JSON line
func (r *Recorder) Record(frame models.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := r.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	r.count++
	return nil
}

// RecordFromChannel records frames until the channel closes or ctx is
// cancelled, then closes the file.
func (r *Recorder) RecordFromChannel(ctx context.Context, frames <-chan models.Frame, onEntry func()) error {
	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case frame, ok := <-frames:
			if !ok {
				return r.Close()
			}
			if err := r.Record(frame); err != nil {
				r.Close()
				return err
			}
			if onEntry != nil {
				onEntry()
			}
		}
	}
}

// Count returns how many frames have been written
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Flush flushes the buffer to disk
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Flush()
}

// Close flushes and closes the recorder
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writer.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
