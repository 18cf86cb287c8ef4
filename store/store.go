// Package store persists conversation history. Stores are scoped by the
// chat ID carried in the request context.
package store

import (
	"context"

	"github.com/effective-security/xlog"

	"github.com/abrachat/abrachat/llms"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "store")

// MaxHistory is the number of messages kept per chat. Older messages
// are dropped so a long conversation cannot grow without bound.
const MaxHistory = 50

// MessageStore keeps the message history of a chat. The chat ID comes
// from the context via chatmodel.
type MessageStore interface {
	Messages(ctx context.Context) []llms.Message
	Add(ctx context.Context, msg llms.Message) error
	Reset(ctx context.Context) error
}
