package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"talkzilla/internal/constant"
	"talkzilla/internal/dto"
	"talkzilla/internal/entity"
	"talkzilla/internal/mapper"
	"talkzilla/internal/pkg/logger"
	"talkzilla/internal/session"
	"talkzilla/pkg/events"
	"talkzilla/pkg/extract"
	"talkzilla/pkg/llm"
	"talkzilla/pkg/tokenizer"
)

var (
	ErrMissingAPIKey       = errors.New(constant.MissingAPIKeyMessage)
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrUnsupportedModel    = errors.New("unsupported model")
	ErrUnsupportedFileType = extract.ErrUnsupportedType
)

// ExchangeError wraps any failure of the remote request/response exchange.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return constant.ExchangeFailedPrefix + e.Err.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// DocumentError wraps a failure to turn an upload into text.
type DocumentError struct {
	Err error
}

func (e *DocumentError) Error() string {
	return constant.DocumentFailedPrefix + e.Err.Error()
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// StreamSink receives the progress of one exchange. A sink error means the
// client went away and aborts the exchange.
type StreamSink interface {
	OnUserTurn(event dto.StreamUserEvent) error
	OnDelta(event dto.StreamDeltaEvent) error
	OnDone(event dto.StreamDoneEvent) error
}

// IChatService defines the chat service interface
type IChatService interface {
	GetState(ctx context.Context, sessionId string) (*dto.ChatStateResponse, error)
	ListModels(ctx context.Context) *dto.ModelListResponse
	SelectModel(ctx context.Context, sessionId string, request *dto.SelectModelRequest) (*dto.ChatStateResponse, error)
	Clear(ctx context.Context, sessionId string) (*dto.ChatStateResponse, error)
	UploadDocument(ctx context.Context, sessionId string, request *dto.UploadDocumentRequest) (*dto.DocumentResponse, error)
	RemoveDocument(ctx context.Context, sessionId string) (*dto.ChatStateResponse, error)
	SendChat(ctx context.Context, sessionId string, request *dto.SendChatRequest, sink StreamSink) error
}

type chatService struct {
	sessions    *session.Manager
	llmProvider llm.StreamingProvider
	counter     tokenizer.Counter
	extractor   *extract.Extractor
	mapper      *mapper.ChatMapper
	publisher   IPublisherService
	logger      logger.ILogger
	auditLogger logger.ILogger
}

func NewChatService(
	sessions *session.Manager,
	llmProvider llm.StreamingProvider,
	counter tokenizer.Counter,
	extractor *extract.Extractor,
	chatMapper *mapper.ChatMapper,
	publisher IPublisherService,
	sysLogger logger.ILogger,
	auditLogger logger.ILogger,
) IChatService {
	return &chatService{
		sessions:    sessions,
		llmProvider: llmProvider,
		counter:     counter,
		extractor:   extractor,
		mapper:      chatMapper,
		publisher:   publisher,
		logger:      sysLogger,
		auditLogger: auditLogger,
	}
}

// GetState returns the transcript and sidebar state, opening the session on first visit.
func (cs *chatService) GetState(ctx context.Context, sessionId string) (*dto.ChatStateResponse, error) {
	unlock := cs.sessions.Lock(sessionId)
	defer unlock()

	s, err := cs.sessions.LoadOrCreate(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	// Saving refreshes the idle expiry
	if err := cs.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return cs.mapper.SessionToState(s), nil
}

func (cs *chatService) ListModels(ctx context.Context) *dto.ModelListResponse {
	models := make([]string, len(constant.SupportedModels))
	copy(models, constant.SupportedModels)
	return &dto.ModelListResponse{
		Default: constant.DefaultModel,
		Models:  models,
	}
}

func (cs *chatService) SelectModel(ctx context.Context, sessionId string, request *dto.SelectModelRequest) (*dto.ChatStateResponse, error) {
	if !constant.IsSupportedModel(request.Model) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, request.Model)
	}

	unlock := cs.sessions.Lock(sessionId)
	defer unlock()

	s, err := cs.sessions.LoadOrCreate(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	s.Model = request.Model
	s.UpdatedAt = cs.sessions.Now()

	if err := cs.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return cs.mapper.SessionToState(s), nil
}

func (cs *chatService) Clear(ctx context.Context, sessionId string) (*dto.ChatStateResponse, error) {
	unlock := cs.sessions.Lock(sessionId)
	defer unlock()

	s, err := cs.sessions.LoadOrCreate(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	s.Clear(cs.sessions.Now())

	if err := cs.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	cs.logger.Info("Chat", "Transcript cleared", map[string]interface{}{"session_id": sessionId})
	return cs.mapper.SessionToState(s), nil
}

func (cs *chatService) UploadDocument(ctx context.Context, sessionId string, request *dto.UploadDocumentRequest) (*dto.DocumentResponse, error) {
	// Extraction happens outside the lock, it can be slow for large PDFs
	result, err := cs.extractor.Extract(request.Name, request.ContentType, request.Data)
	if err != nil {
		cs.logger.Warn("Chat", "Document extraction failed", map[string]interface{}{
			"session_id": sessionId,
			"file":       request.Name,
			"error":      err.Error(),
		})
		return nil, &DocumentError{Err: err}
	}

	unlock := cs.sessions.Lock(sessionId)
	defer unlock()

	s, err := cs.sessions.LoadOrCreate(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	now := cs.sessions.Now()
	s.SetDocument(entity.ChatDocument{
		Name:       request.Name,
		MimeType:   result.MimeType,
		Content:    result.Text,
		Tokens:     cs.counter.Count(result.Text),
		UploadedAt: now,
	}, now)

	if err := cs.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	cs.logger.Info("Chat", "Document uploaded", map[string]interface{}{
		"session_id": sessionId,
		"file":       request.Name,
		"mime_type":  result.MimeType,
		"tokens":     s.Document.Tokens,
	})
	return cs.mapper.DocumentToResponse(s.Document), nil
}

func (cs *chatService) RemoveDocument(ctx context.Context, sessionId string) (*dto.ChatStateResponse, error) {
	unlock := cs.sessions.Lock(sessionId)
	defer unlock()

	s, err := cs.sessions.LoadOrCreate(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	s.ClearDocument(cs.sessions.Now())

	if err := cs.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	return cs.mapper.SessionToState(s), nil
}

// SendChat appends the user turn, streams the reply and appends the assistant
// turn. When the exchange fails the user turn stays and no assistant turn is
// added; the returned error is an *ExchangeError.
func (cs *chatService) SendChat(ctx context.Context, sessionId string, request *dto.SendChatRequest, sink StreamSink) error {
	if strings.TrimSpace(request.ApiKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(request.Prompt) == "" {
		return ErrEmptyPrompt
	}

	unlock := cs.sessions.Lock(sessionId)
	defer unlock()

	s, err := cs.sessions.LoadOrCreate(ctx, sessionId)
	if err != nil {
		return err
	}

	// The outgoing history is built before the prompt joins the transcript
	history := BuildMessages(s, request.Prompt)

	promptTokens := cs.counter.Count(request.Prompt)
	userTurn := s.AppendTurn(constant.ChatMessageRoleUser, request.Prompt, promptTokens, cs.sessions.Now())
	if err := cs.sessions.Save(ctx, s); err != nil {
		return err
	}

	if err := sink.OnUserTurn(dto.StreamUserEvent{
		Turn:        cs.mapper.TurnToResponse(len(s.Turns)-1, userTurn, true),
		TotalTokens: s.TotalTokens,
	}); err != nil {
		return &ExchangeError{Err: err}
	}

	started := time.Now()
	reply, err := cs.llmProvider.ChatStream(ctx, history,
		func(delta string) error {
			return sink.OnDelta(dto.StreamDeltaEvent{Text: delta})
		},
		llm.WithModel(s.Model),
		llm.WithAPIKey(request.ApiKey),
	)
	if err != nil {
		cs.recordExchange(ctx, s, promptTokens, 0, started, err)
		return &ExchangeError{Err: err}
	}

	replyTokens := cs.counter.Count(reply)
	assistantTurn := s.AppendTurn(constant.ChatMessageRoleAssistant, reply, replyTokens, cs.sessions.Now())
	if err := cs.sessions.Save(ctx, s); err != nil {
		return err
	}
	cs.recordExchange(ctx, s, promptTokens, replyTokens, started, nil)

	return sink.OnDone(dto.StreamDoneEvent{
		Turn:            cs.mapper.TurnToResponse(len(s.Turns)-1, assistantTurn, true),
		TotalTokens:     s.TotalTokens,
		CaptionsVisible: s.CaptionsVisible(),
	})
}

// BuildMessages assembles the context sent upstream: the uploaded document as a
// leading user message, every prior turn, then the new prompt.
func BuildMessages(s *entity.ChatSession, prompt string) []llm.Message {
	messages := make([]llm.Message, 0, len(s.Turns)+2)
	if s.Document != nil && s.Document.Content != "" {
		messages = append(messages, llm.Message{
			Role:    constant.ChatMessageRoleUser,
			Content: constant.DocumentContextPrefix + s.Document.Content,
		})
	}
	for _, t := range s.Turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: constant.ChatMessageRoleUser, Content: prompt})
	return messages
}

func (cs *chatService) recordExchange(ctx context.Context, s *entity.ChatSession, promptTokens, replyTokens int, started time.Time, exchangeErr error) {
	usage := dto.ExchangeUsageMessage{
		SessionId:    s.Id,
		Model:        s.Model,
		PromptTokens: promptTokens,
		ReplyTokens:  replyTokens,
		DurationMs:   time.Since(started).Milliseconds(),
		OccurredAt:   time.Now(),
	}
	eventType := constant.EventChatExchangeCompleted
	details := map[string]interface{}{
		"session_id":    s.Id,
		"model":         s.Model,
		"prompt_tokens": promptTokens,
		"reply_tokens":  replyTokens,
		"duration_ms":   usage.DurationMs,
	}

	if exchangeErr != nil {
		usage.Failed = true
		usage.Error = exchangeErr.Error()
		eventType = constant.EventChatExchangeFailed
		details["error"] = exchangeErr.Error()
		cs.logger.Error("Chat", "Exchange failed", details)
	}
	cs.auditLogger.Info("Chat", eventType, details)

	event, err := events.New(eventType, usage, usage.OccurredAt)
	if err != nil {
		return
	}
	if err := cs.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		cs.logger.Warn("Chat", "Failed to publish usage event", map[string]interface{}{"error": err.Error()})
	}
}
