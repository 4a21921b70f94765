package announce

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-audio/internal/history"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-audio/internal/monitor"
)

// ChannelDeviceEvent is the WebSocket channel events are broadcast on.
const ChannelDeviceEvent = "audio.device_event"

// DefaultQueueSize is used when Options.QueueSize is not positive.
const DefaultQueueSize = 256

// sinkTimeout bounds one journal write.
const sinkTimeout = 5 * time.Second

// Event is the announced form of one device event.
type Event struct {
	ID        string             `json:"id"`
	SiteID    string             `json:"site_id"`
	Kind      monitor.EventKind  `json:"kind"`
	Device    monitor.Descriptor `json:"device"`
	Timestamp time.Time          `json:"timestamp"`
}

// Publisher sends JSON messages to the bus.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// Metrics records hotplug points.
type Metrics interface {
	WriteHotplugEvent(e influxdb.HotplugEvent)
}

// Journal stores events.
type Journal interface {
	Record(ctx context.Context, e *history.Event) error
}

// Broadcaster pushes events to live subscribers.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Logger is the logging interface used by the announcer.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures an Announcer. Nil sinks are skipped.
type Options struct {
	SiteID      string
	QueueSize   int
	Publisher   Publisher
	Metrics     Metrics
	Journal     Journal
	Broadcaster Broadcaster
}

// Announcer queues monitor events and delivers them to the sinks.
type Announcer struct {
	opts    Options
	queue   chan Event
	dropped atomic.Uint64
	logger  Logger

	newID func() string
	now   func() time.Time
}

// New creates an Announcer. Call Run to start delivery.
func New(opts Options) *Announcer {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Announcer{
		opts:   opts,
		queue:  make(chan Event, size),
		logger: noopLogger{},
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// SetLogger sets the logger for the announcer.
func (a *Announcer) SetLogger(logger Logger) {
	a.logger = logger
}

// HandleEvent queues the event. It never blocks.
func (a *Announcer) HandleEvent(kind monitor.EventKind, d monitor.Descriptor) {
	e := Event{
		ID:        a.newID(),
		SiteID:    a.opts.SiteID,
		Kind:      kind,
		Device:    d,
		Timestamp: a.now().UTC(),
	}
	select {
	case a.queue <- e:
	default:
		n := a.dropped.Add(1)
		a.logger.Warn("announce queue full, event dropped", "kind", kind.String(), "device", d.Name, "dropped_total", n)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (a *Announcer) Dropped() uint64 {
	return a.dropped.Load()
}

// Run delivers queued events until ctx is done, then delivers whatever is
// still queued and returns nil.
func (a *Announcer) Run(ctx context.Context) error {
	for {
		select {
		case e := <-a.queue:
			a.deliver(ctx, e)
		case <-ctx.Done():
			a.drain()
			return nil
		}
	}
}

// drain delivers the remaining queued events with a fresh context so the
// journal still sees them during shutdown.
func (a *Announcer) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	for {
		select {
		case e := <-a.queue:
			a.deliver(ctx, e)
		default:
			return
		}
	}
}

func (a *Announcer) deliver(ctx context.Context, e Event) {
	card, _ := e.Device.Property("alsa.card")
	a.logger.Debug("announcing device event", "id", e.ID, "kind", e.Kind.String(), "card", card, "class", e.Device.Class)

	if p := a.opts.Publisher; p != nil {
		if err := p.PublishJSON(mqtt.Topics{}.AudioEvent(e.Kind.String()), e); err != nil {
			a.logger.Warn("publishing device event", "id", e.ID, "error", err)
		}
	}

	if m := a.opts.Metrics; m != nil {
		m.WriteHotplugEvent(influxdb.HotplugEvent{
			Kind:  e.Kind.String(),
			Class: e.Device.Class,
			Card:  card,
			Site:  e.SiteID,
			Time:  e.Timestamp,
		})
	}

	if j := a.opts.Journal; j != nil {
		rec := history.FromDescriptor(e.SiteID, e.Kind, e.Device, e.Timestamp)
		rec.ID = e.ID
		jctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := j.Record(jctx, &rec)
		cancel()
		if err != nil {
			a.logger.Warn("journalling device event", "id", e.ID, "error", err)
		}
	}

	if b := a.opts.Broadcaster; b != nil {
		b.Broadcast(ChannelDeviceEvent, e)
	}
}
