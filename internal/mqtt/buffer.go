package mqtt

import log "github.com/sirupsen/logrus"

// queuedMsg is a serialized message waiting for the broker to come back.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO of messages published while offline.
// When full, the oldest message is overwritten. Not safe for concurrent
// use; the caller synchronizes.
type backlog struct {
	buf     []queuedMsg
	head    int // next write position
	count   int
	dropped int // overwritten since the last drain
}

func newBacklog(capacity int) *backlog {
	return &backlog{buf: make([]queuedMsg, capacity)}
}

func (b *backlog) push(msg queuedMsg) {
	if b.count == len(b.buf) {
		if b.dropped == 0 {
			log.WithField("capacity", len(b.buf)).Warn("mqtt: backlog full, dropping oldest")
		}
		b.dropped++
	} else {
		b.count++
	}
	b.buf[b.head] = msg
	b.head = (b.head + 1) % len(b.buf)
}

// drain returns the queued messages oldest first, plus how many were
// dropped, and empties the backlog.
func (b *backlog) drain() ([]queuedMsg, int) {
	if b.count == 0 {
		return nil, 0
	}
	out := make([]queuedMsg, b.count)
	start := (b.head - b.count + len(b.buf)) % len(b.buf)
	for i := range out {
		out[i] = b.buf[(start+i)%len(b.buf)]
	}
	dropped := b.dropped
	b.head, b.count, b.dropped = 0, 0, 0
	return out, dropped
}

func (b *backlog) len() int {
	return b.count
}
