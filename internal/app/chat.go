package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rakhaai/internal/util"
	"rakhaai/pkg/ai"
	"rakhaai/pkg/domain"
	"rakhaai/pkg/quota"
	"rakhaai/pkg/storage"
	"rakhaai/pkg/store"
)

// Default title for a freshly created chat.
const DefaultChatTitle = "Chat Baru"

// Fallback replies persisted when the provider call fails. The turn still
// completes; the caller sees a normal ai message.
const (
	fallbackGatewayError = "⚠️ Maaf, ada error dari Gemini."
	fallbackNoAnswer     = "❌ Tidak ada jawaban."
)

// CreateChat opens a new chat for the user. Empty titles get the default.
func (a *App) CreateChat(ownerID, title string) (domain.Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultChatTitle
	}
	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        util.NewID(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateChat(chat); err != nil {
		return domain.Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// ListChats returns the user's chats, newest first.
func (a *App) ListChats(ownerID string) ([]domain.Chat, error) {
	return a.store.ListChatsByOwner(ownerID)
}

// ownedChat loads a chat and hides it behind ErrChatNotFound when it is
// missing or belongs to another user.
func (a *App) ownedChat(ownerID, chatID string) (domain.Chat, error) {
	chat, ok, err := a.store.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("load chat: %w", err)
	}
	if !ok || chat.OwnerID != ownerID {
		return domain.Chat{}, ErrChatNotFound
	}
	return chat, nil
}

// ListChatMessages returns the full history of an owned chat, oldest first,
// with presigned photo URLs attached where possible.
func (a *App) ListChatMessages(ctx context.Context, ownerID, chatID string) ([]domain.Message, error) {
	if _, err := a.ownedChat(ownerID, chatID); err != nil {
		return nil, err
	}
	msgs, err := a.store.ListMessages(chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	a.presignPhotos(ctx, msgs)
	return msgs, nil
}

// RenameChat updates the title of an owned chat.
func (a *App) RenameChat(ownerID, chatID, title string) (domain.Chat, error) {
	if _, err := a.ownedChat(ownerID, chatID); err != nil {
		return domain.Chat{}, err
	}
	if strings.TrimSpace(title) == "" {
		return domain.Chat{}, fmt.Errorf("title is required")
	}
	if err := a.store.UpdateChatTitle(chatID, title); err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			return domain.Chat{}, ErrChatNotFound
		}
		return domain.Chat{}, fmt.Errorf("rename chat: %w", err)
	}
	chat, _, err := a.store.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("reload chat: %w", err)
	}
	return chat, nil
}

// DeleteChat removes an owned chat and its messages.
func (a *App) DeleteChat(ownerID, chatID string) error {
	if _, err := a.ownedChat(ownerID, chatID); err != nil {
		return err
	}
	if err := a.store.DeleteChat(chatID); err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			return ErrChatNotFound
		}
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

// SendMessage runs one chat turn: quota check, photo upload, user turn
// persistence, history window, provider call, ai turn persistence. Quota
// denial is the only clean rejection; once the user turn is written, store
// failures propagate and leave the turn without a reply.
//
// Ownership is not enforced here. Two concurrent turns on one chat can both
// pass the quota check with a stale count; that race is accepted.
func (a *App) SendMessage(ctx context.Context, user domain.User, chatID, text string, photo *ai.Photo, photoName string) (domain.Message, domain.Message, error) {
	if _, ok, err := a.store.GetChat(chatID); err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("load chat: %w", err)
	} else if !ok {
		return domain.Message{}, domain.Message{}, ErrChatNotFound
	}
	if strings.TrimSpace(text) == "" && photo == nil {
		return domain.Message{}, domain.Message{}, ErrEmptyTurn
	}

	count, err := a.store.CountMessages(chatID)
	if err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("count messages: %w", err)
	}
	if err := quota.Check(user.Plan, count); err != nil {
		return domain.Message{}, domain.Message{}, err
	}

	photoPath := ""
	if photo != nil {
		photoPath = storage.NewPhotoKey(photoName)
		if err := a.photos.Put(ctx, photoPath, bytes.NewReader(photo.Data), int64(len(photo.Data)), photo.MimeType); err != nil {
			return domain.Message{}, domain.Message{}, fmt.Errorf("store photo: %w", err)
		}
	}

	userTurn := domain.Message{
		ID:        util.NewID(),
		ChatID:    chatID,
		Sender:    domain.SenderUser,
		Text:      text,
		PhotoPath: photoPath,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AppendMessage(userTurn); err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			return domain.Message{}, domain.Message{}, ErrChatNotFound
		}
		return domain.Message{}, domain.Message{}, fmt.Errorf("append user turn: %w", err)
	}

	window, err := a.store.RecentMessages(chatID, a.historyLimit)
	if err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("load history: %w", err)
	}
	prompt := renderPrompt(a.stylePrompt, window)

	// Only the just-uploaded photo rides along; earlier photo turns appear
	// in the prompt as [Photo: key] markers.
	reply, err := a.generator.GenerateReply(ctx, prompt, photo)
	if err != nil {
		logger := util.LoggerFromContext(ctx)
		if errors.Is(err, ai.ErrNoAnswer) {
			logger.Warn("provider returned no answer", "chat_id", chatID)
			reply = fallbackNoAnswer
		} else {
			logger.Warn("provider call failed", "chat_id", chatID, "error", err)
			reply = fallbackGatewayError
		}
	}

	aiTurn := domain.Message{
		ID:        util.NewID(),
		ChatID:    chatID,
		Sender:    domain.SenderAI,
		Text:      reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AppendMessage(aiTurn); err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("append ai turn: %w", err)
	}

	turns := []domain.Message{userTurn, aiTurn}
	a.presignPhotos(ctx, turns)
	return turns[0], turns[1], nil
}

// renderPrompt joins the style preamble with the history window, one line
// per turn. Photo turns carry a bracketed key marker.
func renderPrompt(preamble string, window []domain.Message) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\nHistory chat:\n")
	for _, msg := range window {
		role := "User"
		if msg.Sender == domain.SenderAI {
			role = "Assistant"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Text)
		if msg.PhotoPath != "" {
			b.WriteString(" [Photo: ")
			b.WriteString(msg.PhotoPath)
			b.WriteString("]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// presignPhotos fills PhotoURL in place for photo turns. Presign failures
// leave the URL empty rather than failing the read.
func (a *App) presignPhotos(ctx context.Context, msgs []domain.Message) {
	for i := range msgs {
		if msgs[i].PhotoPath == "" {
			continue
		}
		url, err := a.photos.PresignGet(ctx, msgs[i].PhotoPath, a.presignTTL)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("presign photo failed", "key", msgs[i].PhotoPath, "error", err)
			continue
		}
		msgs[i].PhotoURL = url
	}
}
