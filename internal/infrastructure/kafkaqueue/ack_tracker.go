package kafkaqueue

import (
	"sync"

	"github.com/segmentio/kafka-go"
)

type topicPartition struct {
	topic     string
	partition int
}

type trackedMessage struct {
	receipt string
	msg     kafka.Message
	acked   bool
}

// ackTracker keeps fetched messages in offset order per partition and
// decides which offset is safe to commit. Kafka group commits are
// cumulative: committing a message marks every earlier offset in its
// partition consumed too. A fetched message may therefore only reach a
// commit once all earlier fetched messages in the same partition are
// acked, otherwise an unacked message would lose its redelivery.
type ackTracker struct {
	mu       sync.Mutex
	receipts map[string]*trackedMessage
	pending  map[topicPartition][]*trackedMessage
}

func newAckTracker() *ackTracker {
	return &ackTracker{
		receipts: make(map[string]*trackedMessage),
		pending:  make(map[topicPartition][]*trackedMessage),
	}
}

// track registers a fetched message under the given receipt. Messages of
// one partition must be tracked in fetch order, which FetchMessage
// guarantees.
func (t *ackTracker) track(receipt string, msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := &trackedMessage{receipt: receipt, msg: msg}
	t.receipts[receipt] = entry

	tp := topicPartition{topic: msg.Topic, partition: msg.Partition}
	t.pending[tp] = append(t.pending[tp], entry)
}

// ack marks the receipt's message acknowledged and returns the message to
// commit, if any: the last message of the contiguous acked prefix of its
// partition. An unknown receipt or a prefix still blocked by an unacked
// message returns false. The tracked state is left in place until
// committed confirms the broker accepted the offset, so a failed commit
// can be retried by acking again.
func (t *ackTracker) ack(receipt string) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.receipts[receipt]
	if !ok {
		return kafka.Message{}, false
	}
	entry.acked = true

	tp := topicPartition{topic: entry.msg.Topic, partition: entry.msg.Partition}
	var commit *trackedMessage
	for _, pending := range t.pending[tp] {
		if !pending.acked {
			break
		}
		commit = pending
	}
	if commit == nil {
		return kafka.Message{}, false
	}
	return commit.msg, true
}

// committed drops every tracked message of the committed message's
// partition up to and including its offset
func (t *ackTracker) committed(msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tp := topicPartition{topic: msg.Topic, partition: msg.Partition}
	pending := t.pending[tp]

	kept := pending[:0]
	for _, entry := range pending {
		if entry.msg.Offset <= msg.Offset {
			delete(t.receipts, entry.receipt)
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) == 0 {
		delete(t.pending, tp)
		return
	}
	t.pending[tp] = kept
}
