package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/store"
	"github.com/zlnvch/daybook/worker"
)

const chatInstructions = "You are a journaling assistant. You help the user reflect on their daily logs and goals. " +
	"Answer the user's latest message using the conversation so far for context. Be concise and concrete."

func buildChatInput(history []models.ChatMessage, message string) string {
	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Sender, m.Message)
	}
	fmt.Fprintf(&sb, "\nUser's new message:\n%s\n", message)
	return sb.String()
}

// CreateChat starts a chat session, optionally linked to a feedback
// document; linked feedback is seeded as the first assistant message.
func (s *Service) CreateChat(ctx context.Context, user models.User, chatName string, feedbackId string) (models.Chat, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "start_chat"); err != nil {
		return models.Chat{}, err
	}

	var seedContent string
	if feedbackId != "" {
		feedback, err := s.Store.GetFeedback(ctx, feedbackId)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return models.Chat{}, fmt.Errorf("%w: feedback %s", ErrNotFound, feedbackId)
			}
			return models.Chat{}, err
		}
		if feedback.UserId != user.Id {
			return models.Chat{}, fmt.Errorf("%w: feedback %s", ErrUnauthorized, feedbackId)
		}
		seedContent = feedback.Content
	}

	chatUUID, err := uuid.NewV7()
	if err != nil {
		return models.Chat{}, err
	}

	chat := models.Chat{
		ChatId:     chatUUID.String(),
		UserId:     user.Id,
		ChatName:   chatName,
		FeedbackId: feedbackId,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Store.CreateChat(ctx, chat); err != nil {
		return models.Chat{}, err
	}

	if seedContent != "" {
		seed, err := s.newChatMessage(models.SenderAssistant, seedContent)
		if err != nil {
			return models.Chat{}, err
		}
		if err := s.Store.AddChatMessage(ctx, chat.ChatId, seed); err != nil {
			return models.Chat{}, err
		}
		chat.Messages = []models.ChatMessage{seed}
	}

	return chat, nil
}

func (s *Service) GetChat(ctx context.Context, user models.User, chatId string) (models.Chat, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return models.Chat{}, err
	}
	return s.ownedChat(ctx, user, chatId)
}

func (s *Service) ListChats(ctx context.Context, user models.User, pageSize int, pageToken string) ([]models.Chat, string, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "default"); err != nil {
		return nil, "", err
	}

	pageSize = clampPageSize(pageSize)
	startAfter, err := decodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}

	chats, err := s.Store.ListChats(ctx, user.Id, pageSize, startAfter)
	if err != nil {
		return nil, "", err
	}

	token := ""
	if len(chats) > 0 {
		last := chats[len(chats)-1]
		token = nextPageToken(len(chats), pageSize, store.FormatSortTime(last.CreatedAt), last.ChatId)
	}
	return chats, token, nil
}

// SendMessage stores the user's message, generates the assistant reply
// with the chat history as context, and spends one chat token for free
// users. The token decrement is batched and best-effort.
func (s *Service) SendMessage(ctx context.Context, user models.User, chatId string, message string) (models.ChatMessage, error) {
	if err := s.Limiter.CheckAndConsume(ctx, user.Id, "send_message"); err != nil {
		return models.ChatMessage{}, err
	}

	if user.Plan != models.PlanPaid && user.ChatTokens <= 0 {
		return models.ChatMessage{}, ErrInsufficientTokens
	}

	chat, err := s.ownedChat(ctx, user, chatId)
	if err != nil {
		return models.ChatMessage{}, err
	}

	userMsg, err := s.newChatMessage(models.SenderUser, message)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if err := s.Store.AddChatMessage(ctx, chatId, userMsg); err != nil {
		return models.ChatMessage{}, err
	}

	input := buildChatInput(chat.Messages, message)
	reply, err := s.Generator.Generate(ctx, chatInstructions, input)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	assistantMsg, err := s.newChatMessage(models.SenderAssistant, reply)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if err := s.Store.AddChatMessage(ctx, chatId, assistantMsg); err != nil {
		return models.ChatMessage{}, err
	}

	if user.Plan != models.PlanPaid {
		s.TokenBatcher.UpdateCh <- worker.TokenUpdate{
			UserId: user.Id,
			Delta:  -1,
		}
	}

	return assistantMsg, nil
}

func (s *Service) ownedChat(ctx context.Context, user models.User, chatId string) (models.Chat, error) {
	chat, err := s.Store.GetChat(ctx, chatId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Chat{}, fmt.Errorf("%w: chat %s", ErrNotFound, chatId)
		}
		return models.Chat{}, err
	}
	if chat.UserId != user.Id {
		return models.Chat{}, fmt.Errorf("%w: chat %s", ErrUnauthorized, chatId)
	}
	return chat, nil
}

func (s *Service) newChatMessage(sender models.Sender, message string) (models.ChatMessage, error) {
	msgUUID, err := uuid.NewV7()
	if err != nil {
		return models.ChatMessage{}, err
	}
	return models.ChatMessage{
		MessageId: msgUUID.String(),
		Sender:    sender,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}, nil
}
