package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/synheart/synheart-breath/internal/models"
)

// maxLine bounds a single NDJSON line
const maxLine = 1 << 20

// Replayer reads and replays frames from an NDJSON file
type Replayer struct {
	filename   string
	speed      float64
	loop       bool
	frameCount int
	firstFrame *models.Frame
	loaded     bool
}

// NewReplayer creates a new replayer. A speed of 0 replays without pauses.
func NewReplayer(filename string, speed float64, loop bool) *Replayer {
	return &Replayer{
		filename: filename,
		speed:    speed,
		loop:     loop,
	}
}

// ReadFrames loads every frame of a recording
func ReadFrames(filename string) ([]models.Frame, error) {
	var frames []models.Frame
	err := scanFrames(filename, func(_ int, f models.Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

func scanFrames(filename string, fn func(line int, f models.Frame) error) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var frame models.Frame
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			return fmt.Errorf("failed to parse frame at line %d: %w", lineNum, err)
		}
		if err := fn(lineNum, frame); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	return nil
}

// loadMetadata reads the file once to cache count and first frame
func (r *Replayer) loadMetadata() error {
	if r.loaded {
		return nil
	}

	r.frameCount = 0
	err := scanFrames(r.filename, func(_ int, f models.Frame) error {
		r.frameCount++
		if r.firstFrame == nil {
			first := f
			r.firstFrame = &first
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.loaded = true
	return nil
}

// Replay sends frames to output, paced by their at_ms spacing
func (r *Replayer) Replay(ctx context.Context, output chan<- models.Frame) error {
	for {
		if err := r.replayOnce(ctx, output); err != nil {
			return err
		}

		if !r.loop {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (r *Replayer) replayOnce(ctx context.Context, output chan<- models.Frame) error {
	var lastAt int64
	first := true

	return scanFrames(r.filename, func(_ int, frame models.Frame) error {
		if !first && r.speed > 0 {
			delay := time.Duration(frame.AtMs-lastAt) * time.Millisecond
			delay = time.Duration(float64(delay) / r.speed)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
		}
		first = false
		lastAt = frame.AtMs

		select {
		case <-ctx.Done():
			return ctx.Err()
		case output <- frame:
		}
		return nil
	})
}

// CountFrames returns the number of frames in the recording
func (r *Replayer) CountFrames() (int, error) {
	if err := r.loadMetadata(); err != nil {
		return 0, err
	}
	return r.frameCount, nil
}

// GetFirstFrame returns the first frame in the recording
func (r *Replayer) GetFirstFrame() (*models.Frame, error) {
	if err := r.loadMetadata(); err != nil {
		return nil, err
	}
	if r.firstFrame == nil {
		return nil, fmt.Errorf("recording file is empty")
	}
	return r.firstFrame, nil
}
