// Package streamio persists generated datasets on disk and loads them back:
// LZ4-compressed JSONL window streams, YAML ground-truth summaries, and a
// JSON manifest validated against an embedded schema.
package streamio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// File name suffixes for the three dataset artifacts.
const (
	StreamSuffix   = ".stream.jsonl.lz4"
	SummarySuffix  = ".summary.yaml"
	ManifestSuffix = ".manifest.json"
)

var (
	// ErrTruncatedStream is returned when a stream file ends mid-record.
	ErrTruncatedStream = errors.New("streamio: truncated stream file")
)

// PartitionRecord is one partition's ordered item sequence within a window.
type PartitionRecord struct {
	ID    int      `json:"id"`
	Items []string `json:"items"`
}

// WindowRecord is the wire form of one window: one JSONL line per window in
// the compressed stream file.
type WindowRecord struct {
	Window     int               `json:"window"`
	Partitions []PartitionRecord `json:"partitions"`
}

// WriteStream writes the window records as LZ4-framed JSON lines.
func WriteStream(path string, windows []WindowRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stream file: %w", err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close stream file: %w", closeErr)
		}
	}()

	zw := lz4.NewWriter(f)
	enc := json.NewEncoder(zw)

	for _, w := range windows {
		encodeErr := enc.Encode(w)
		if encodeErr != nil {
			return fmt.Errorf("encode window %d: %w", w.Window, encodeErr)
		}
	}

	flushErr := zw.Close()
	if flushErr != nil {
		return fmt.Errorf("flush stream file: %w", flushErr)
	}

	return nil
}

// ReadStream loads all window records from an LZ4-framed JSONL stream file.
func ReadStream(path string) ([]WindowRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stream file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(lz4.NewReader(f))

	var windows []WindowRecord

	for {
		var w WindowRecord

		decodeErr := dec.Decode(&w)
		if errors.Is(decodeErr, io.EOF) {
			break
		}

		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrTruncatedStream, decodeErr)
		}

		windows = append(windows, w)
	}

	return windows, nil
}
