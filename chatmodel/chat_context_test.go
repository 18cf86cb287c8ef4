package chatmodel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrachat/abrachat/chatmodel"
)

func Test_ChatContext(t *testing.T) {
	ctx := context.Background()

	_, err := chatmodel.GetChatID(ctx)
	assert.ErrorIs(t, err, chatmodel.ErrInvalidChatContext)

	ctx = chatmodel.WithChatContext(ctx, chatmodel.NewChatContext("chat1"))
	id, err := chatmodel.GetChatID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat1", id)

	cc := chatmodel.GetChatContext(ctx)
	require.NotNil(t, cc)
	cc.SetMetadata("k", "v")
	v, ok := cc.GetMetadata("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func Test_SetChatID(t *testing.T) {
	ctx := chatmodel.SetChatID(context.Background(), "")
	id, err := chatmodel.GetChatID(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// same ID is a no-op
	ctx2 := chatmodel.SetChatID(ctx, id)
	assert.Equal(t, ctx, ctx2)

	ctx3 := chatmodel.SetChatID(ctx, "other")
	id3, err := chatmodel.GetChatID(ctx3)
	require.NoError(t, err)
	assert.Equal(t, "other", id3)
}

type contentHolder struct{ C string }

func (c contentHolder) GetContent() string { return c.C }

func Test_Stringify(t *testing.T) {
	assert.Equal(t, "hello", chatmodel.Stringify(contentHolder{C: "hello"}))
	assert.Equal(t, `{"A":1}`, chatmodel.Stringify(struct{ A int }{1}))
}
