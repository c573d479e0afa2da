// Package stream decodes the chunked, line-delimited chat response body
// into discrete stream events. One decoder serves exactly one request; a
// fresh request needs a fresh decoder.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"neuralchat/internal/logger"
	"neuralchat/pkg/chattypes"
)

// framePrefix marks a candidate event frame within the body. Lines without
// it (blank keep-alives, SSE comments) are ignored.
const framePrefix = "data: "

// readChunkSize is the read granularity of Run. Frame boundaries do not
// align with it; the decoder's partial-line buffer absorbs the difference.
const readChunkSize = 4096

// framePayload is the structured payload of one frame. Content is a
// pointer so an explicit empty delta is distinguishable from an absent one.
type framePayload struct {
	Content *string `json:"content"`
	Error   string  `json:"error"`
	Done    bool    `json:"done"`
}

// Decoder turns raw byte chunks into an ordered sequence of stream events.
// It holds at most one partial line between chunks; after a terminal event
// (error or done) all further input is discarded.
type Decoder struct {
	buf    string
	closed bool
}

// NewDecoder creates a decoder for a single response body.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Closed reports whether the decoder has emitted a terminal event.
func (d *Decoder) Closed() bool {
	return d.closed
}

// Feed appends one raw chunk and returns every event completed by it.
// A frame split across chunk boundaries is held until its terminating
// newline arrives, then decoded exactly once.
func (d *Decoder) Feed(chunk []byte) []chattypes.StreamEvent {
	if d.closed {
		return nil
	}

	d.buf += string(chunk)

	var events []chattypes.StreamEvent
	for {
		idx := strings.Index(d.buf, "\n")
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]

		lineEvents, terminal := d.decodeLine(line)
		events = append(events, lineEvents...)
		if terminal {
			d.closed = true
			d.buf = ""
			break
		}
	}
	return events
}

// Flush decodes a trailing unterminated line at end of stream.
func (d *Decoder) Flush() []chattypes.StreamEvent {
	if d.closed || d.buf == "" {
		return nil
	}
	line := d.buf
	d.buf = ""

	events, terminal := d.decodeLine(line)
	if terminal {
		d.closed = true
	}
	return events
}

// decodeLine decodes one complete line into zero or more events and
// reports whether a terminal event was reached. Malformed frames are
// dropped, never surfaced.
func (d *Decoder) decodeLine(line string) ([]chattypes.StreamEvent, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, framePrefix) {
		return nil, false
	}

	var payload framePayload
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, framePrefix)), &payload); err != nil {
		logger.Debug("Dropping malformed frame", "error", err, "line_length", len(line))
		return nil, false
	}

	if payload.Error != "" {
		logger.StreamEvent("error", "message", payload.Error)
		return []chattypes.StreamEvent{{Kind: chattypes.StreamError, Err: payload.Error}}, true
	}

	var events []chattypes.StreamEvent
	if payload.Content != nil {
		events = append(events, chattypes.StreamEvent{Kind: chattypes.StreamContent, Content: *payload.Content})
	}
	if payload.Done {
		logger.StreamEvent("done")
		events = append(events, chattypes.StreamEvent{Kind: chattypes.StreamDone})
		return events, true
	}
	return events, false
}

// Run drives a fresh decoder over a response body, invoking fn for each
// event in order. It returns once a terminal event is dispatched, the body
// ends, fn returns an error, or ctx is cancelled at a chunk boundary.
func Run(ctx context.Context, body io.Reader, fn func(chattypes.StreamEvent) error) error {
	decoder := NewDecoder()
	chunk := make([]byte, readChunkSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := body.Read(chunk)
		if n > 0 {
			for _, event := range decoder.Feed(chunk[:n]) {
				if err := fn(event); err != nil {
					return err
				}
			}
			if decoder.Closed() {
				return nil
			}
		}
		if readErr == io.EOF {
			for _, event := range decoder.Flush() {
				if err := fn(event); err != nil {
					return err
				}
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read stream: %w", readErr)
		}
	}
}
