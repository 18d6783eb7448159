// Package sink provides consumers for emitted samples.
package sink

import (
	"encoding/json"
	"fmt"
	"io"

	log "github.com/golang/glog"

	"github.com/cbegin/lfogen/internal/engine"
)

type Format int

const (
	// FormatJSON writes each message as one JSON object per line.
	FormatJSON Format = iota
	// FormatText writes "topic value" lines for people watching a terminal.
	FormatText
)

// Writer encodes samples to an io.Writer. After the first write error it
// stops writing and reports the error from Err.
type Writer struct {
	w      io.Writer
	enc    *json.Encoder
	format Format
	err    error
}

func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{w: w, enc: json.NewEncoder(w), format: format}
}

func (s *Writer) Emit(m engine.Message) {
	if s.err != nil {
		return
	}
	var err error
	switch s.format {
	case FormatText:
		topic, ok := m.Topic()
		if !ok {
			topic = "-"
		}
		_, err = fmt.Fprintf(s.w, "%s\t%.6f\n", topic, m.Payload())
	default:
		err = s.enc.Encode(map[string]any(m))
	}
	if err != nil {
		s.err = err
		log.Warningf("sink: write failed, dropping further samples: %v", err)
	}
}

func (s *Writer) Err() error { return s.err }

// Tee fans every sample out to several sinks in order.
type Tee []engine.Sink

func (t Tee) Emit(m engine.Message) {
	for _, s := range t {
		s.Emit(m)
	}
}
