package constant

const (
	UsageTopicName = "CHAT_USAGE"

	EventChatExchangeCompleted = "CHAT_EXCHANGE_COMPLETED"
	EventChatExchangeFailed    = "CHAT_EXCHANGE_FAILED"
)

// Server-sent event names streamed to the chat page.
const (
	StreamEventUser  = "user"
	StreamEventDelta = "delta"
	StreamEventDone  = "done"
	StreamEventError = "error"
)
