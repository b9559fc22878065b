package graphics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lumacast/showrunner/common/apperr"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	topic   string
	message string
	err     error
}

func (p *capturingPublisher) PublishEvent(ctx context.Context, channel string, message string) error {
	p.topic = channel
	p.message = message
	return p.err
}

func newTestBus(p Publisher) *Bus {
	return NewBus(p, logger.New("error", "text"))
}

func TestBroadcast_PublishesToChannelTopic(t *testing.T) {
	publisher := &capturingPublisher{}

	err := newTestBus(publisher).Broadcast(context.Background(), NormalizedCommand{
		Type:       CommandPlay,
		Channel:    3,
		Layer:      1,
		TemplateID: "lower-third",
		Data:       map[string]any{"name": "Jane Doe"},
		PlayOnLoad: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "graphics.ch.3", publisher.topic)

	var sent NormalizedCommand
	require.NoError(t, json.Unmarshal([]byte(publisher.message), &sent))
	assert.Equal(t, CommandPlay, sent.Type)
	assert.Equal(t, "lower-third", sent.TemplateID)
	assert.True(t, sent.PlayOnLoad)
}

func TestBroadcast_RejectsUnknownType(t *testing.T) {
	err := newTestBus(&capturingPublisher{}).Broadcast(context.Background(), NormalizedCommand{
		Type:    "explode",
		Channel: 1,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestBroadcast_RejectsNegativeChannel(t *testing.T) {
	err := newTestBus(&capturingPublisher{}).Broadcast(context.Background(), NormalizedCommand{
		Type:    CommandStop,
		Channel: -1,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestBroadcast_WrapsPublishFailure(t *testing.T) {
	publisher := &capturingPublisher{err: errors.New("connection refused")}

	err := newTestBus(publisher).Broadcast(context.Background(), NormalizedCommand{
		Type:    CommandUpdate,
		Channel: 0,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsExternal(err))
}

func TestChannelTopicRoundTrip(t *testing.T) {
	assert.Equal(t, 7, ChannelFromTopic(ChannelTopic(7)))
	assert.Equal(t, 0, ChannelFromTopic("graphics.ch.0"))
	assert.Equal(t, -1, ChannelFromTopic("execution.updated"))
	assert.Equal(t, -1, ChannelFromTopic("graphics.ch.x"))
	assert.Equal(t, -1, ChannelFromTopic("graphics.ch.-2"))
}
