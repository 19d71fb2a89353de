package ai

import (
	"context"
	"errors"
)

// Photo is an inline image forwarded to the model provider alongside the
// prompt text. MimeType defaults to image/jpeg when empty.
type Photo struct {
	Data     []byte
	MimeType string
}

// ReplyGenerator produces one assistant reply for a rendered prompt.
// Providers (Gemini, OpenRouter) implement this interface. One synchronous
// round trip per call: no retry, no streaming.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, prompt string, photo *Photo) (string, error)
}

// ErrNoAnswer reports a successful provider response that is missing the
// expected reply field.
var ErrNoAnswer = errors.New("no answer from provider")

func photoMimeType(photo *Photo) string {
	if photo == nil || photo.MimeType == "" {
		return "image/jpeg"
	}
	return photo.MimeType
}
