// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
type StreamReader struct {
	reader *bufio.Reader
	// strings.Builder avoids quadratic allocations while accumulating
	accumulator strings.Builder
	chunkCount  int
	model       string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each text chunk.
// Blocks until the stream is complete or the context is cancelled.
// A record carrying both final text and done delivers the text first.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			text, done, err := s.readRecord()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
			}

			if text != "" {
				callback(text)
			}
			if done {
				return nil
			}
		}
	}
}

// readRecord reads and parses a single NDJSON line from the stream.
// Malformed lines are skipped, not fatal.
func (s *StreamReader) readRecord() (text string, done bool, err error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return "", false, io.EOF
		}
		// Process the trailing line even when it lacks a newline.
		if len(line) == 0 {
			return "", false, err
		}
	}

	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return "", false, nil
	}

	var record GenerateResponse
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil {
		// Skip malformed lines.
		return "", false, nil
	}

	if record.Model != "" {
		s.model = record.Model
	}
	if record.Response != "" {
		s.accumulator.WriteString(record.Response)
		s.chunkCount++
	}

	return record.Response, record.Done, nil
}

// Accumulated returns all content seen so far.
func (s *StreamReader) Accumulated() string {
	return s.accumulator.String()
}

// ChunkCount returns the number of non-empty chunks received.
func (s *StreamReader) ChunkCount() int {
	return s.chunkCount
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator is the per-turn accumulation state of the narration
// pipeline: the monotonically growing full response, plus a pending
// buffer that is drained whenever a sentence boundary appears.
type StreamAccumulator struct {
	full    strings.Builder
	pending string
}

// NewStreamAccumulator creates an empty accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{}
}

// Add appends a chunk to both the full response and the pending buffer.
func (a *StreamAccumulator) Add(chunk string) {
	a.full.WriteString(chunk)
	a.pending += chunk
}

// DrainSentences extracts the complete sentences currently in the
// pending buffer and replaces the buffer with the unterminated tail.
func (a *StreamAccumulator) DrainSentences() []string {
	sentences, remainder := ExtractSentences(a.pending)
	a.pending = remainder
	return sentences
}

// Remainder returns what is left in the pending buffer, without
// consuming it.
func (a *StreamAccumulator) Remainder() string {
	return a.pending
}

// TakeRemainder returns and clears the pending buffer. Used at stream
// end so the trailing fragment is still narrated.
func (a *StreamAccumulator) TakeRemainder() string {
	r := a.pending
	a.pending = ""
	return r
}

// Full returns the accumulated full response text.
func (a *StreamAccumulator) Full() string {
	return a.full.String()
}
