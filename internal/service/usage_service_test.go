package service

import (
	"context"
	"testing"
	"time"

	"talkzilla/internal/constant"
	"talkzilla/internal/dto"
	"talkzilla/internal/pkg/logger"
	"talkzilla/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageServiceAggregatesExchanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	usage := NewUsageService(pubSub, constant.UsageTopicName, logger.NewNopLogger())
	require.NoError(t, usage.Consume(ctx))

	publisher := NewPublisherService(constant.UsageTopicName, pubSub)
	publish := func(eventType string, msg dto.ExchangeUsageMessage) {
		e, err := events.New(eventType, msg, time.Now())
		require.NoError(t, err)
		require.NoError(t, publisher.Publish(ctx, e))
	}

	publish(constant.EventChatExchangeCompleted, dto.ExchangeUsageMessage{Model: constant.ModelGemini20Flash, PromptTokens: 3, ReplyTokens: 10})
	publish(constant.EventChatExchangeCompleted, dto.ExchangeUsageMessage{Model: constant.ModelGemini15Pro, PromptTokens: 2, ReplyTokens: 5})
	publish(constant.EventChatExchangeFailed, dto.ExchangeUsageMessage{Model: constant.ModelGemini20Flash, PromptTokens: 4, Failed: true})
	publish("SOMETHING_ELSE", dto.ExchangeUsageMessage{Model: "ignored", PromptTokens: 100})

	require.Eventually(t, func() bool {
		return usage.Snapshot().Exchanges == 3
	}, time.Second, 10*time.Millisecond)

	snap := usage.Snapshot()
	assert.Equal(t, 1, snap.Failures)
	assert.Equal(t, 9, snap.PromptTokens)
	assert.Equal(t, 15, snap.ReplyTokens)
	assert.Equal(t, dto.ModelUsageResponse{Exchanges: 2, Failures: 1, PromptTokens: 7, ReplyTokens: 10}, snap.Models[constant.ModelGemini20Flash])
	assert.NotContains(t, snap.Models, "ignored")
}
