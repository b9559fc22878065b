package graphics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
)

// CommandType enumerates the normalized graphics commands
type CommandType string

const (
	CommandPlay   CommandType = "play"
	CommandUpdate CommandType = "update"
	CommandStop   CommandType = "stop"
	CommandNext   CommandType = "next"
	CommandInvoke CommandType = "invoke"
)

// NormalizedCommand is the message fanned out to channel-subscribed
// display clients. The core only produces it; delivery is owned by the
// fanout collaborator.
type NormalizedCommand struct {
	Type       CommandType    `json:"type"`
	Channel    int            `json:"channel"`
	Layer      int            `json:"layer"`
	TemplateID string         `json:"templateId,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	PlayOnLoad bool           `json:"playOnLoad,omitempty"`
}

// Publisher delivers a serialized message to a named channel.
// Satisfied by the Redis client wrapper.
type Publisher interface {
	PublishEvent(ctx context.Context, channel string, message string) error
}

// Bus publishes normalized commands to per-channel topics
type Bus struct {
	publisher Publisher
	log       *logger.Logger
}

// NewBus creates a graphics channel bus
func NewBus(publisher Publisher, log *logger.Logger) *Bus {
	return &Bus{
		publisher: publisher,
		log:       log,
	}
}

// ChannelTopic returns the pub/sub topic for a graphics channel
func ChannelTopic(channel int) string {
	return fmt.Sprintf("graphics.ch.%d", channel)
}

// ChannelTopicPattern matches every graphics channel topic
const ChannelTopicPattern = "graphics.ch.*"

// ChannelFromTopic parses the channel number out of a topic name.
// Returns -1 when the topic is not a graphics channel topic.
func ChannelFromTopic(topic string) int {
	suffix, ok := strings.CutPrefix(topic, "graphics.ch.")
	if !ok {
		return -1
	}
	channel, err := strconv.Atoi(suffix)
	if err != nil || channel < 0 {
		return -1
	}
	return channel
}

// Broadcast validates and publishes one command to its channel topic
func (b *Bus) Broadcast(ctx context.Context, cmd NormalizedCommand) error {
	switch cmd.Type {
	case CommandPlay, CommandUpdate, CommandStop, CommandNext, CommandInvoke:
	default:
		return &apperr.ValidationError{Field: "type", Message: fmt.Sprintf("unknown command type %q", cmd.Type)}
	}

	if cmd.Channel < 0 {
		return &apperr.ValidationError{Field: "channel", Message: "channel must be >= 0"}
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal graphics command: %w", err)
	}

	topic := ChannelTopic(cmd.Channel)
	if err := b.publisher.PublishEvent(ctx, topic, string(payload)); err != nil {
		return apperr.External("graphics bus", "publish", err)
	}

	b.log.Debug("graphics command broadcast",
		"channel", cmd.Channel,
		"type", cmd.Type,
		"template_id", cmd.TemplateID,
	)
	return nil
}
