package bridge

import "sync"

// MessageIndex remembers the timestamps of messages this process has
// posted, so thread replies to the bot are recognized without a mention.
// Bounded: once at capacity the oldest entry is evicted, meaning a very
// old thread stops auto-answering without an explicit mention. Slack
// timestamps are monotonically increasing, so FIFO eviction drops the
// least useful entries first.
type MessageIndex struct {
	mu       sync.Mutex
	capacity int
	order    []string
	seen     map[string]struct{}
}

const defaultIndexCapacity = 4096

func NewMessageIndex(capacity int) *MessageIndex {
	if capacity <= 0 {
		capacity = defaultIndexCapacity
	}
	return &MessageIndex{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

func (i *MessageIndex) Add(ts string) {
	if ts == "" {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.seen[ts]; ok {
		return
	}

	if len(i.order) >= i.capacity {
		oldest := i.order[0]
		i.order = i.order[1:]
		delete(i.seen, oldest)
	}

	i.order = append(i.order, ts)
	i.seen[ts] = struct{}{}
}

func (i *MessageIndex) Contains(ts string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, ok := i.seen[ts]
	return ok
}

func (i *MessageIndex) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return len(i.order)
}
