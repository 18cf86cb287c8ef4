// Package chatmodel carries per-conversation identity through
// context.Context and provides small helpers shared by the assistant,
// the stores and the chat API.
package chatmodel

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var ErrInvalidChatContext = errors.New("invalid chat context")

// ChatContext identifies one conversation.
type ChatContext interface {
	GetChatID() string
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type chatContext struct {
	chatID   string
	metadata sync.Map
}

func (c *chatContext) GetChatID() string {
	return c.chatID
}

func (c *chatContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *chatContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

func NewChatContext(chatID string) ChatContext {
	if chatID == "" {
		chatID = NewChatID()
	}
	return &chatContext{chatID: chatID}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithChatContext returns a new context with the ChatContext value.
func WithChatContext(ctx context.Context, chatCtx ChatContext) context.Context {
	return context.WithValue(ctx, keyContext, chatCtx)
}

// GetChatContext retrieves the ChatContext from the context, or nil.
func GetChatContext(ctx context.Context) ChatContext {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v
	}
	return nil
}

// GetChatID returns the chat ID from the context.
// It fails if no ChatContext is set.
func GetChatID(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(keyContext).(ChatContext); ok {
		return v.GetChatID(), nil
	}
	return "", errors.WithStack(ErrInvalidChatContext)
}

// SetChatID ensures the context carries a ChatContext with the given ID,
// generating a new ID when empty.
func SetChatID(ctx context.Context, chatID string) context.Context {
	if cc := GetChatContext(ctx); cc != nil && (chatID == "" || cc.GetChatID() == chatID) {
		return ctx
	}
	return WithChatContext(ctx, NewChatContext(chatID))
}

// NewChatID generates a new random chat ID.
func NewChatID() string {
	return uuid.NewString()
}
