package node

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/sirupsen/logrus"
)

type eventKind int

const (
	eventMessage eventKind = iota
	eventEOF
	eventError
)

// event is what the input reader hands to the event loop.
type event struct {
	kind eventKind
	msg  message.Message
	err  error
}

// source reads newline-delimited envelopes and queues them for the event
// loop. It never touches node state. After EOF or an error it queues exactly
// one terminal event and returns.
type source struct {
	r          *bufio.Reader
	eventCh    chan<- event
	shutdownCh <-chan struct{}
	logger     *logrus.Entry
}

func newSource(r io.Reader, eventCh chan<- event, shutdownCh <-chan struct{}, logger *logrus.Entry) *source {
	return &source{
		r:          bufio.NewReader(r),
		eventCh:    eventCh,
		shutdownCh: shutdownCh,
		logger:     logger,
	}
}

func (s *source) run() {
	line := 0

	for {
		b, err := s.r.ReadBytes('\n')
		if len(b) > 0 {
			line++
		}

		// the last line may lack its terminator; blank lines are skipped
		if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 {
			msg, derr := message.Decode(trimmed)
			if derr != nil {
				var decodeErr *message.DecodeErr
				if errors.As(derr, &decodeErr) {
					decodeErr.Line = line
				}
				s.push(event{kind: eventError, err: derr})
				return
			}

			if !s.push(event{kind: eventMessage, msg: msg}) {
				return
			}
		}

		if err == io.EOF {
			s.logger.WithField("lines", line).Debug("Input closed")
			s.push(event{kind: eventEOF})
			return
		}

		if err != nil {
			s.push(event{kind: eventError, err: fmt.Errorf("reading input: %w", err)})
			return
		}
	}
}

// push blocks until the loop takes the event or shuts down.
func (s *source) push(ev event) bool {
	select {
	case s.eventCh <- ev:
		return true
	case <-s.shutdownCh:
		return false
	}
}
