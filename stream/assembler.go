// Package stream reconstructs a streamed assistant reply from the service's
// newline-delimited event protocol.
package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/pkg/logger"
)

// dataPrefix marks lines carrying an event payload. Anything else on the
// stream is ignored.
const dataPrefix = "data: "

// Event types the protocol knows.
const (
	eventChunk    = "chunk"
	eventComplete = "complete"
	eventError    = "error"
)

type payload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// maxLineSize bounds a single event line. Far above anything the service
// emits per chunk.
const maxLineSize = 1 << 20

// Assembler incrementally materializes one assistant message from a reply
// stream.
type Assembler struct {
	log *logger.Logger
}

// New creates an assembler.
func New(log *logger.Logger) *Assembler {
	return &Assembler{log: log.WithComponent("stream")}
}

// Run reads r line by line until the transport closes. Each accumulated
// revision of the reply is handed to onRevision; first is true exactly once,
// on the revision that should materialize the assistant message.
//
// A chunk event appends to the accumulator, a complete event overwrites it,
// and an error event aborts with a stream error while leaving whatever was
// already delivered standing. Blank payloads are skipped; lines that fail to
// parse are logged and skipped without aborting the stream. If the transport
// closes without a complete event, the accumulated text is final.
func (a *Assembler) Run(r io.Reader, onRevision func(text string, first bool)) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var acc strings.Builder
	started := false

	deliver := func(text string) {
		first := !started
		started = true
		if onRevision != nil {
			onRevision(text, first)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		raw := strings.TrimSpace(line[len(dataPrefix):])
		if raw == "" {
			continue
		}

		var p payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			a.log.Warn("skipping unparseable stream event", "error", err)
			continue
		}

		switch p.Type {
		case eventChunk:
			acc.WriteString(p.Content)
			deliver(acc.String())
		case eventComplete:
			acc.Reset()
			acc.WriteString(p.Content)
			deliver(acc.String())
		case eventError:
			return acc.String(), errors.NewStreamError(p.Message)
		default:
			a.log.Debug("ignoring unknown stream event", "type", p.Type)
		}
	}

	// A read failure mid-stream is indistinguishable from the transport
	// closing; the accumulated text stands either way.
	if err := scanner.Err(); err != nil {
		a.log.Warn("reply stream closed early", "error", err)
	}

	return acc.String(), nil
}
