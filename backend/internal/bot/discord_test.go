package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkrelay/backend/internal/thread"
)

func TestDispatchMessage_FatalErrorDestroysSession(t *testing.T) {
	log := &gatewayLog{}
	m := NewManager(namedDialer(log, []string{"a", "b"}))
	ctx := context.Background()

	s, err := m.Start(ctx, Credentials{BotToken: "tok", UserLinkID: 42})
	require.NoError(t, err)
	require.Equal(t, StateReady, s.State())

	h := NewHandler(thread.NewEngine(newRecordingStore(), handlerTypes), 42)
	api := &fakeChannelAPI{channelErr: errors.New("api down")}

	dispatchMessage(ctx, h, api, "bot-1", DefaultFatalPolicy, s,
		newMessageCreate("m1", "c1", "<@bot-1> hello", false))

	assert.Equal(t, StateExited, s.State())
	select {
	case <-s.Done():
	default:
		t.Fatal("Done must be closed after a fatal handler failure")
	}

	// The process keeps serving: a later init starts a fresh session
	s2, err := m.Start(ctx, Credentials{BotToken: "tok", UserLinkID: 42})
	require.NoError(t, err)
	assert.Equal(t, StateReady, s2.State())
	assert.Same(t, s2, m.Active())
}

func TestDispatchMessage_NonFatalErrorKeepsSession(t *testing.T) {
	log := &gatewayLog{}
	m := NewManager(namedDialer(log, []string{"a"}))
	ctx := context.Background()

	s, err := m.Start(ctx, Credentials{BotToken: "tok", UserLinkID: 42})
	require.NoError(t, err)

	h := NewHandler(thread.NewEngine(newRecordingStore(), handlerTypes), 42)
	api := &fakeChannelAPI{channelErr: errors.New("api down")}
	tolerant := func(error) bool { return false }

	dispatchMessage(ctx, h, api, "bot-1", tolerant, s,
		newMessageCreate("m1", "c1", "<@bot-1> hello", false))

	assert.Equal(t, StateReady, s.State())
	select {
	case <-s.Done():
		t.Fatal("Done must stay open when the policy tolerates the error")
	default:
	}
}

func TestDispatchMessage_SuccessLeavesSessionAlone(t *testing.T) {
	log := &gatewayLog{}
	m := NewManager(namedDialer(log, []string{"a"}))
	ctx := context.Background()

	s, err := m.Start(ctx, Credentials{BotToken: "tok", UserLinkID: 42})
	require.NoError(t, err)

	store := newRecordingStore()
	h := NewHandler(thread.NewEngine(store, handlerTypes), 42)
	api := &fakeChannelAPI{channels: map[string]*discordgo.Channel{"c1": threadChannel("c1")}}

	dispatchMessage(ctx, h, api, "bot-1", DefaultFatalPolicy, s,
		newMessageCreate("m1", "c1", "<@bot-1> hello", false))

	assert.Equal(t, StateReady, s.State())
	assert.NotEmpty(t, store.inserted)
}
