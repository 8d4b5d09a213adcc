package handler

import (
	"context"
	"errors"
	"testing"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/service"
	"carcamalbot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestDispatcher(t *testing.T, sender *testutil.FakeSender, logger *zap.Logger) (*Dispatcher, *Registry, *service.ConversationService) {
	t.Helper()
	conv := service.NewConversationService(domain.NewGroceriesMachine(), testutil.NewMemorySessionRepository(), 0, logger)
	reg := NewRegistry()
	require.NoError(t, reg.Command("groceries").Handle(func(ctx context.Context, msg domain.Message) error {
		return sendAll(ctx, sender, msg.ChatID, conv.Enter(ctx, msg.UserID))
	}))
	require.NoError(t, reg.Command("ping").Handle(func(ctx context.Context, msg domain.Message) error {
		return sender.Send(ctx, msg.ChatID, domain.TextReply("pong"))
	}))
	return NewDispatcher(conv, reg, sender, logger), reg, conv
}

func TestDispatcher_RoutesCommands(t *testing.T) {
	sender := &testutil.FakeSender{}
	d, _, _ := newTestDispatcher(t, sender, testutil.NewTestLogger())

	d.Handle(context.Background(), testutil.NewTestMessage(1, "/ping"))

	assert.Equal(t, []string{"pong"}, sender.Texts())
}

func TestDispatcher_IgnoresPlainTextAndUnknownCommands(t *testing.T) {
	sender := &testutil.FakeSender{}
	d, _, _ := newTestDispatcher(t, sender, testutil.NewTestLogger())

	d.Handle(context.Background(), testutil.NewTestMessage(1, "hello there"))
	d.Handle(context.Background(), testutil.NewTestMessage(1, "/unknown"))
	d.Handle(context.Background(), testutil.NewTestMessage(1, ""))

	assert.Empty(t, sender.Sent())
}

func TestDispatcher_ActiveConversationTakesPrecedence(t *testing.T) {
	sender := &testutil.FakeSender{}
	d, _, conv := newTestDispatcher(t, sender, testutil.NewTestLogger())
	ctx := context.Background()

	d.Handle(ctx, testutil.NewTestMessage(1, "/groceries"))
	require.True(t, conv.Active(1))
	sender.Reset()

	// a command while in the conversation is routed to the conversation
	d.Handle(ctx, testutil.NewTestMessage(1, "/ping"))
	assert.Equal(t, []string{"What do you want to do?"}, sender.Texts())
	sender.Reset()

	d.Handle(ctx, testutil.NewTestMessage(1, domain.LabelAdd))
	d.Handle(ctx, testutil.NewTestMessage(1, "milk"))
	assert.Equal(t, []string{
		"What do you want to add?",
		"milk added to groceries",
		"Your groceries list:\n - milk\n\nWhat do you want to do?",
	}, sender.Texts())
	sender.Reset()

	// other users are unaffected
	d.Handle(ctx, testutil.NewTestMessage(2, "/ping"))
	assert.Equal(t, []string{"pong"}, sender.Texts())
}

func TestDispatcher_ExitDeactivates(t *testing.T) {
	sender := &testutil.FakeSender{}
	d, _, _ := newTestDispatcher(t, sender, testutil.NewTestLogger())
	ctx := context.Background()

	d.Handle(ctx, testutil.NewTestMessage(1, "/groceries"))
	d.Handle(ctx, testutil.NewTestMessage(1, domain.LabelExit))
	sender.Reset()

	d.Handle(ctx, testutil.NewTestMessage(1, "milk"))
	assert.Empty(t, sender.Sent())

	d.Handle(ctx, testutil.NewTestMessage(1, "/ping"))
	assert.Equal(t, []string{"pong"}, sender.Texts())
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sender := &testutil.FakeSender{}
	d, reg, _ := newTestDispatcher(t, sender, zap.New(core))
	require.NoError(t, reg.Command("boom").Handle(func(context.Context, domain.Message) error {
		panic("handler bug")
	}))

	assert.NotPanics(t, func() {
		d.Handle(context.Background(), testutil.NewTestMessage(1, "/boom"))
	})
	assert.Equal(t, 1, logs.FilterMessage("Recovered from panic in handler").Len())

	d.Handle(context.Background(), testutil.NewTestMessage(1, "/ping"))
	assert.Equal(t, []string{"pong"}, sender.Texts())
}

func TestDispatcher_LogsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d, reg, _ := newTestDispatcher(t, &testutil.FakeSender{}, zap.New(core))
	require.NoError(t, reg.Command("fail").Handle(func(context.Context, domain.Message) error {
		return errors.New("send failed")
	}))

	d.Handle(context.Background(), testutil.NewTestMessage(1, "/fail"))

	entries := logs.FilterMessage("Command failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "fail", entries[0].ContextMap()["command"])
}
