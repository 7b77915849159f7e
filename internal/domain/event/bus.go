// Package event is the notification bus a simulation publishes to. Each
// simulation constructs its own Bus.
package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Topic string

const (
	TopicResource  Topic = "resource"
	TopicTask      Topic = "task"
	TopicWeather   Topic = "weather"
	TopicTime      Topic = "time"
	TopicGameState Topic = "game_state"

	// TopicAll subscribes to every topic.
	TopicAll Topic = "*"
)

const (
	ResourceAdded        = "resource_added"
	ResourceRemoved      = "resource_removed"
	ResourceOverCapacity = "resource_over_capacity"
	TaskStarted          = "task_started"
	TaskCompleted        = "task_completed"
	TaskFailed           = "task_failed"
	TaskCancelled        = "task_cancelled"
	TaskRewardsClaimed   = "task_rewards_claimed"
	ChainCompleted       = "chain_completed"
	WeatherChanged       = "weather_changed"
	DayStarted           = "day_started"
	SeasonChanged        = "season_changed"
	StateLoaded          = "state_loaded"
	StateSaved           = "state_saved"
)

type DomainEvent struct {
	ID         string         `json:"id"`
	Topic      Topic          `json:"topic"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type Handler func(DomainEvent)

type subscription struct {
	id      uint64
	topic   Topic
	handler Handler
}

// Bus delivers events synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	NewID  func() string
}

func NewBus() *Bus {
	return &Bus{NewID: uuid.NewString}
}

// Subscribe registers handler for topic and returns a function that
// removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish fills in the id, then delivers to matching subscribers.
func (b *Bus) Publish(evt DomainEvent) DomainEvent {
	if evt.ID == "" && b.NewID != nil {
		evt.ID = b.NewID()
	}
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.topic == TopicAll || s.topic == evt.Topic {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()
	for _, h := range targets {
		h(evt)
	}
	return evt
}

func (b *Bus) Emit(topic Topic, typ string, at time.Time, payload map[string]any) DomainEvent {
	return b.Publish(DomainEvent{Topic: topic, Type: typ, OccurredAt: at, Payload: payload})
}

// Collector buffers events until drained.
type Collector struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (c *Collector) Handle(evt DomainEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *Collector) Drain() []DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}
