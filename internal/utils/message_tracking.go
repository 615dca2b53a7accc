package utils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// MessageTracker remembers which Kafka message carried each item so the
// offset can be committed once the item has been handed off. Messages that
// share an id, including the empty id, queue up and are released oldest first.
type MessageTracker struct {
	mu       sync.Mutex
	messages map[string][]*kafka.Message
}

func NewMessageTracker() *MessageTracker {
	return &MessageTracker{messages: make(map[string][]*kafka.Message)}
}

func (t *MessageTracker) Track(id string, msg *kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages[id] = append(t.messages[id], msg)
}

// Release returns and forgets the oldest message tracked for id.
func (t *MessageTracker) Release(id string) (*kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := t.messages[id]
	if len(queue) == 0 {
		return nil, false
	}
	msg := queue[0]
	if len(queue) == 1 {
		delete(t.messages, id)
	} else {
		t.messages[id] = queue[1:]
	}
	return msg, true
}

// Pending reports how many messages are still waiting for a commit.
func (t *MessageTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, queue := range t.messages {
		n += len(queue)
	}
	return n
}
