package mapper

import (
	"fmt"

	"talkzilla/internal/constant"
	"talkzilla/internal/dto"
	"talkzilla/internal/entity"
)

// HTMLRenderer turns turn content into page-safe HTML.
type HTMLRenderer interface {
	Render(source string) string
}

type ChatMapper struct {
	renderer HTMLRenderer
}

func NewChatMapper(renderer HTMLRenderer) *ChatMapper {
	return &ChatMapper{renderer: renderer}
}

func (m *ChatMapper) TurnToResponse(index int, t entity.ChatTurn, captions bool) dto.ChatTurnResponse {
	res := dto.ChatTurnResponse{
		Index:     index,
		Role:      t.Role,
		Content:   t.Content,
		Html:      m.renderer.Render(t.Content),
		Tokens:    t.Tokens,
		CreatedAt: t.CreatedAt,
	}
	if captions {
		res.Caption = TokenCaption(t.Tokens)
	}
	return res
}

func (m *ChatMapper) DocumentToResponse(d *entity.ChatDocument) *dto.DocumentResponse {
	if d == nil {
		return nil
	}
	return &dto.DocumentResponse{
		Name:       d.Name,
		MimeType:   d.MimeType,
		Content:    d.Content,
		Tokens:     d.Tokens,
		Caption:    fmt.Sprintf("Tokens in file: %d", d.Tokens),
		UploadedAt: d.UploadedAt,
	}
}

func (m *ChatMapper) SessionToState(s *entity.ChatSession) *dto.ChatStateResponse {
	captions := s.CaptionsVisible()
	turns := make([]dto.ChatTurnResponse, 0, len(s.Turns))
	for i, t := range s.Turns {
		turns = append(turns, m.TurnToResponse(i, t, captions))
	}

	models := make([]string, len(constant.SupportedModels))
	copy(models, constant.SupportedModels)

	return &dto.ChatStateResponse{
		Model:           s.Model,
		Models:          models,
		Turns:           turns,
		CaptionsVisible: captions,
		TotalTokens:     s.TotalTokens,
		Document:        m.DocumentToResponse(s.Document),
	}
}

func TokenCaption(tokens int) string {
	return fmt.Sprintf("Tokens used: %d", tokens)
}
