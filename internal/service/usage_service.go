package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"talkzilla/internal/constant"
	"talkzilla/internal/dto"
	"talkzilla/internal/pkg/logger"
	"talkzilla/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// IUsageService aggregates process-wide token usage from exchange events.
type IUsageService interface {
	Consume(ctx context.Context) error
	Snapshot() *dto.UsageResponse
}

type usageService struct {
	subscriber message.Subscriber
	topicName  string
	logger     logger.ILogger

	mu    sync.RWMutex
	usage dto.UsageResponse
}

func NewUsageService(subscriber message.Subscriber, topicName string, log logger.ILogger) IUsageService {
	return &usageService{
		subscriber: subscriber,
		topicName:  topicName,
		logger:     log,
		usage: dto.UsageResponse{
			Since:  time.Now(),
			Models: make(map[string]dto.ModelUsageResponse),
		},
	}
}

func (us *usageService) Consume(ctx context.Context) error {
	messages, err := us.subscriber.Subscribe(ctx, us.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			us.processMessage(msg)
		}
	}()

	return nil
}

func (us *usageService) processMessage(msg *message.Message) {
	// Malformed messages are acked so they are not redelivered forever
	defer msg.Ack()

	event, err := events.Decode(msg.Payload)
	if err != nil {
		us.logger.Warn("Usage", "Failed to decode event", map[string]interface{}{"error": err.Error()})
		return
	}

	switch event.EventType() {
	case constant.EventChatExchangeCompleted, constant.EventChatExchangeFailed:
	default:
		return
	}

	var payload dto.ExchangeUsageMessage
	if err := json.Unmarshal(event.Payload(), &payload); err != nil {
		us.logger.Warn("Usage", "Failed to decode usage payload", map[string]interface{}{"error": err.Error()})
		return
	}

	us.record(payload)
}

func (us *usageService) record(p dto.ExchangeUsageMessage) {
	us.mu.Lock()
	defer us.mu.Unlock()

	m := us.usage.Models[p.Model]
	m.Exchanges++
	m.PromptTokens += p.PromptTokens
	m.ReplyTokens += p.ReplyTokens
	if p.Failed {
		m.Failures++
		us.usage.Failures++
	}
	us.usage.Models[p.Model] = m

	us.usage.Exchanges++
	us.usage.PromptTokens += p.PromptTokens
	us.usage.ReplyTokens += p.ReplyTokens
}

func (us *usageService) Snapshot() *dto.UsageResponse {
	us.mu.RLock()
	defer us.mu.RUnlock()

	out := us.usage
	out.Models = make(map[string]dto.ModelUsageResponse, len(us.usage.Models))
	for k, v := range us.usage.Models {
		out.Models[k] = v
	}
	return &out
}
