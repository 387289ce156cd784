package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"talkzilla/internal/constant"
	"talkzilla/internal/dto"
	"talkzilla/internal/pkg/logger"
	"talkzilla/internal/pkg/serverutils"
	"talkzilla/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	State(ctx *fiber.Ctx) error
	Models(ctx *fiber.Ctx) error
	SelectModel(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	UploadDocument(ctx *fiber.Ctx) error
	RemoveDocument(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService    service.IChatService
	logger         logger.ILogger
	maxUploadBytes int
}

func NewChatController(chatService service.IChatService, log logger.ILogger, maxUploadBytes int) IChatController {
	return &chatController{
		chatService:    chatService,
		logger:         log,
		maxUploadBytes: maxUploadBytes,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Get("state", c.State)
	h.Get("models", c.Models)
	h.Put("model", c.SelectModel)
	h.Post("clear", c.Clear)
	h.Post("document", c.UploadDocument)
	h.Delete("document", c.RemoveDocument)
	h.Post("messages", c.SendMessage)
}

func (c *chatController) State(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetState(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return toFiberError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat state", res))
}

func (c *chatController) Models(ctx *fiber.Ctx) error {
	res := c.chatService.ListModels(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Success list models", res))
}

func (c *chatController) SelectModel(ctx *fiber.Ctx) error {
	var req dto.SelectModelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SelectModel(ctx.UserContext(), serverutils.SessionID(ctx), &req)
	if err != nil {
		return toFiberError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success select model", res))
}

func (c *chatController) Clear(ctx *fiber.Ctx) error {
	res, err := c.chatService.Clear(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return toFiberError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear chat", res))
}

func (c *chatController) UploadDocument(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if c.maxUploadBytes > 0 && fileHeader.Size > int64(c.maxUploadBytes) {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("%sfile exceeds %d bytes", constant.DocumentFailedPrefix, c.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return toFiberError(&service.DocumentError{Err: err})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return toFiberError(&service.DocumentError{Err: err})
	}

	res, err := c.chatService.UploadDocument(ctx.UserContext(), serverutils.SessionID(ctx), &dto.UploadDocumentRequest{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return toFiberError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *chatController) RemoveDocument(ctx *fiber.Ctx) error {
	res, err := c.chatService.RemoveDocument(ctx.UserContext(), serverutils.SessionID(ctx))
	if err != nil {
		return toFiberError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success remove document", res))
}

// SendMessage streams the exchange as server-sent events: one "user" event,
// any number of "delta" events, then "done" or "error".
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.ApiKey = serverutils.APIKey(ctx)

	// Credential and prompt problems are plain JSON errors, nothing is streamed
	if strings.TrimSpace(req.ApiKey) == "" {
		return toFiberError(service.ErrMissingAPIKey)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return toFiberError(service.ErrEmptyPrompt)
	}

	// Locals do not survive into the stream writer
	sessionId := serverutils.SessionID(ctx)

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sink := &sseSink{w: w}
		err := c.chatService.SendChat(streamCtx, sessionId, &req, sink)
		if err == nil {
			return
		}

		if sink.broken {
			c.logger.Warn("Chat", "Client disconnected during stream", map[string]interface{}{
				"session_id": sessionId,
			})
			return
		}

		message := err.Error()
		var exchangeErr *service.ExchangeError
		if !errors.As(err, &exchangeErr) {
			message = constant.ExchangeFailedPrefix + err.Error()
		}
		_ = sink.write(constant.StreamEventError, dto.StreamErrorEvent{Message: message})
	})

	return nil
}

// sseSink frames stream events for the browser and flushes each one.
type sseSink struct {
	w      *bufio.Writer
	broken bool
}

func (s *sseSink) OnUserTurn(event dto.StreamUserEvent) error {
	return s.write(constant.StreamEventUser, event)
}

func (s *sseSink) OnDelta(event dto.StreamDeltaEvent) error {
	return s.write(constant.StreamEventDelta, event)
}

func (s *sseSink) OnDone(event dto.StreamDoneEvent) error {
	return s.write(constant.StreamEventDone, event)
}

func (s *sseSink) write(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		s.broken = true
		return err
	}
	if err := s.w.Flush(); err != nil {
		s.broken = true
		return err
	}
	return nil
}

func toFiberError(err error) error {
	var documentErr *service.DocumentError
	var exchangeErr *service.ExchangeError

	switch {
	case errors.Is(err, service.ErrMissingAPIKey):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmptyPrompt), errors.Is(err, service.ErrUnsupportedModel):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupportedFileType):
		return fiber.NewError(fiber.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &documentErr):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &exchangeErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
