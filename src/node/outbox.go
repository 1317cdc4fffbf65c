package node

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// outbox implements Sender over the process output. It owns the node's
// message id counter.
type outbox struct {
	self    string
	nextID  int
	w       *bufio.Writer
	enc     *message.Encoder
	metrics *telemetry.Metrics
	logger  *logrus.Entry
}

func newOutbox(w io.Writer, metrics *telemetry.Metrics, logger *logrus.Entry) *outbox {
	bw := bufio.NewWriter(w)
	return &outbox{
		w:       bw,
		enc:     message.NewEncoder(bw),
		metrics: metrics,
		logger:  logger,
	}
}

// Send implements Sender.
func (o *outbox) Send(dest string, p message.Payload) error {
	return o.write(message.New(o.self, dest, o.allocID(), p))
}

// Reply implements Sender.
func (o *outbox) Reply(req message.Message, p message.Payload) error {
	return o.write(message.Reply(req, o.allocID(), p))
}

func (o *outbox) allocID() int {
	id := o.nextID
	o.nextID++
	return id
}

func (o *outbox) write(m message.Message) error {
	if err := o.enc.Encode(m); err != nil {
		return fmt.Errorf("writing %s to %s: %w", m.Type(), m.Dest, err)
	}

	o.metrics.Sent(string(m.Type()))

	id, _ := m.ID()
	o.logger.WithFields(logrus.Fields{
		"dest":   m.Dest,
		"type":   m.Type(),
		"msg_id": id,
	}).Debug("Send")

	return nil
}

func (o *outbox) flush() error {
	if err := o.w.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}
