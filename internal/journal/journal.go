// Package journal implements the three process-wide append-only log
// channels: mission activity, tool usage and context changes. Entries fan
// out over an in-process pub/sub to one NDJSON sink per channel; channels
// are purely additive, there is no compaction or rotation.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc"

	"github.com/opsdeck/missiond/pkg/storage"
)

// Channel identifies one of the append-only log channels.
type Channel string

const (
	ChannelActivity      Channel = "activity"
	ChannelToolUsage     Channel = "tool_usage"
	ChannelContextChange Channel = "context_change"
)

var allChannels = []Channel{ChannelActivity, ChannelToolUsage, ChannelContextChange}

// Level is the severity of a journal entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one structured journal record.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// Journal is the process-wide sink set. Publishing blocks until the sink
// has acknowledged the write, so an entry is durable when Append returns.
type Journal struct {
	pubSub *gochannel.GoChannel
	store  storage.Storage
	logger *slog.Logger
	cancel context.CancelFunc
	wg     *conc.WaitGroup
}

// New creates the journal and starts one sink per channel.
func New(store storage.Storage, logger *slog.Logger) (*Journal, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewSlogLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	j := &Journal{
		pubSub: pubSub,
		store:  store,
		logger: logger,
		cancel: cancel,
		wg:     conc.NewWaitGroup(),
	}

	for _, ch := range allChannels {
		msgs, err := pubSub.Subscribe(ctx, string(ch))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to subscribe to %s channel: %w", ch, err)
		}
		ch := ch
		j.wg.Go(func() {
			j.sink(ch, msgs)
		})
	}
	return j, nil
}

// Append publishes an entry to the given channel. The entry id and
// timestamp are filled in when missing.
func (j *Journal) Append(ctx context.Context, ch Channel, e Entry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Level == "" {
		e.Level = LevelInfo
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	return j.pubSub.Publish(string(ch), message.NewMessage(e.ID, payload))
}

// Activity appends one entry to the mission activity channel.
func (j *Journal) Activity(ctx context.Context, level Level, source, msg string, data map[string]any) error {
	return j.Append(ctx, ChannelActivity, Entry{Level: level, Source: source, Message: msg, Data: data})
}

// ToolUsage appends one entry to the tool usage channel.
func (j *Journal) ToolUsage(ctx context.Context, source, msg string, data map[string]any) error {
	return j.Append(ctx, ChannelToolUsage, Entry{Level: LevelInfo, Source: source, Message: msg, Data: data})
}

// ContextChange appends one entry to the context change channel.
func (j *Journal) ContextChange(ctx context.Context, source, msg string, data map[string]any) error {
	return j.Append(ctx, ChannelContextChange, Entry{Level: LevelInfo, Source: source, Message: msg, Data: data})
}

// Close stops the sinks after in-flight entries are written.
func (j *Journal) Close() error {
	err := j.pubSub.Close()
	j.cancel()
	j.wg.Wait()
	return err
}

func channelPath(ch Channel) string {
	return fmt.Sprintf("logs/%s.ndjson", ch)
}

func (j *Journal) sink(ch Channel, msgs <-chan *message.Message) {
	for msg := range msgs {
		line := append(msg.Payload, '\n')
		if err := j.store.Append(context.Background(), channelPath(ch), line); err != nil {
			// The channel is advisory; never fail the producer.
			j.logger.Error("failed to append journal entry", "channel", string(ch), "error", err)
		}
		msg.Ack()
	}
}
