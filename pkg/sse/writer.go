// Package sse frames the live chat stream as Server-Sent Events.
//
// Three event kinds exist: a delta (default message event carrying
// {"delta": text}), a terminal done (event: done, empty object) and a
// terminal error (event: error, {"message": text}). Exactly one terminal
// event ends every stream, and it is always the last frame.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
)

type deltaPayload struct {
	Delta string `json:"delta"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Writer pushes events to one client over a buffered stream body.
// Every write flushes, so the caller observes liveness per event; a failed
// flush means the client is gone and terminates that request's processing.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w *bufio.Writer) *Writer {
	return &Writer{w: w}
}

// Delta sends one generation increment as an unnamed message event,
// matching EventSource's default onmessage handling.
func (s *Writer) Delta(text string) error {
	data, err := json.Marshal(deltaPayload{Delta: text})
	if err != nil {
		return fmt.Errorf("marshal delta: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("write delta: %w", err)
	}
	return s.w.Flush()
}

// Done sends the terminal success frame.
func (s *Writer) Done() error {
	if _, err := fmt.Fprint(s.w, "event: done\ndata: {}\n\n"); err != nil {
		return fmt.Errorf("write done: %w", err)
	}
	return s.w.Flush()
}

// Error sends the terminal failure frame.
func (s *Writer) Error(message string) error {
	data, err := json.Marshal(errorPayload{Message: message})
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: error\ndata: %s\n\n", data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return s.w.Flush()
}
