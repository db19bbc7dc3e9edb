package sdk

import (
	"fmt"
	"sync"
	"time"
)

// EventType names what happened in the host.
// EventType 表示宿主中发生的事件类型。
type EventType string

const (
	// EventTypeConfigReload is published after an inspector re-reads its configuration.
	// Payload is the reload error, nil on success.
	// EventTypeConfigReload 在检查器重新读取配置后发布。Payload 为重载错误，成功时为 nil。
	EventTypeConfigReload EventType = "config_reload"
	// EventTypeWorkerStopped is published when a worker detaches from its inspectors.
	// Payload is the worker id.
	// EventTypeWorkerStopped 在工作线程与检查器分离时发布。Payload 为工作线程 id。
	EventTypeWorkerStopped EventType = "worker_stopped"
)

// Event is one host notification.
// Event 是一条宿主通知。
type Event struct {
	Type      EventType
	Source    string
	Payload   any
	Timestamp time.Time
}

// NewEvent stamps an event with the current time.
// NewEvent 用当前时间标记事件。
func NewEvent(eventType EventType, source string, payload any) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

func (e Event) String() string {
	return fmt.Sprintf("%s from %s: %v", e.Type, e.Source, e.Payload)
}

// EventHandler handles one event.
type EventHandler func(event Event)

// EventBus delivers host events to subscribers.
// EventBus 将宿主事件投递给订阅者。
type EventBus interface {
	// Subscribe registers handler for eventType and returns a function that removes it.
	// Subscribe 为 eventType 注册 handler，并返回移除它的函数。
	Subscribe(eventType EventType, handler EventHandler) (unsubscribe func())
	// Publish delivers event to every handler subscribed to its type.
	// Publish 将事件投递给订阅其类型的每个处理器。
	Publish(event Event)
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// DefaultEventBus runs handlers synchronously on the publishing goroutine, in
// subscription order. Publish is called from worker goroutines, so handlers must not block.
// A panicking handler is recovered and reported through OnPanic.
// DefaultEventBus 在发布者 goroutine 上按订阅顺序同步运行处理器。
// Publish 会在工作线程 goroutine 中调用，因此处理器不得阻塞。
// 处理器的 panic 会被恢复并通过 OnPanic 报告。
type DefaultEventBus struct {
	mu     sync.RWMutex
	subs   map[EventType][]subscription
	nextID uint64

	// OnPanic, if set, receives the event and the recovered value.
	OnPanic func(Event, any)
}

// NewEventBus creates an empty bus.
// NewEventBus 创建一个空的事件总线。
func NewEventBus() *DefaultEventBus {
	return &DefaultEventBus{subs: make(map[EventType][]subscription)}
}

func (b *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *DefaultEventBus) remove(eventType EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[eventType]
	for i, s := range subs {
		if s.id == id {
			// Copy so a Publish iterating the old slice is unaffected
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			b.subs[eventType] = append(next, subs[i+1:]...)
			return
		}
	}
}

func (b *DefaultEventBus) Publish(event Event) {
	b.mu.RLock()
	subs := b.subs[event.Type]
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s.handler, event)
	}
}

func (b *DefaultEventBus) deliver(h EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil && b.OnPanic != nil {
			b.OnPanic(event, r)
		}
	}()
	h(event)
}

var _ EventBus = (*DefaultEventBus)(nil)
