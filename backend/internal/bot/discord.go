package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"linkrelay/backend/internal/thread"
	"linkrelay/backend/pkg/logger"
)

// DiscordDialer returns a Dialer backed by the real Discord gateway. The
// returned connection carries the threading handler plus the lifecycle
// handlers driving the session's state transitions.
func DiscordDialer(engine *thread.Engine, policy FatalPolicy) Dialer {
	if policy == nil {
		policy = DefaultFatalPolicy
	}

	return func(ctx context.Context, creds Credentials, sess *Session) (Conn, error) {
		dg, err := discordgo.New("Bot " + creds.BotToken)
		if err != nil {
			return nil, err
		}

		dg.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentMessageContent

		log := logger.Get()
		handler := NewHandler(engine, creds.UserLinkID)

		dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
			log.Info("Logged in",
				zap.String("session_id", sess.ID),
				zap.String("bot_user", r.User.Username),
			)
			sess.markReady()
		})

		dg.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
			sess.markDisconnected()
		})

		dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
			dispatchMessage(ctx, handler, s, s.State.User.ID, policy, sess, m)
		})

		return dg, nil
	}
}

// dispatchMessage runs the threading pipeline for one gateway event and
// applies the fatal policy to any failure: a fatal one destroys the
// session best-effort, leaving recovery to the next init request.
func dispatchMessage(ctx context.Context, h *Handler, api ChannelAPI, botUserID string, policy FatalPolicy, sess *Session, m *discordgo.MessageCreate) {
	err := h.Handle(ctx, api, botUserID, m)
	if err == nil {
		return
	}
	h.logger.Error("Message handling failed",
		zap.String("session_id", sess.ID),
		zap.String("message_id", m.ID),
		zap.Error(err),
	)
	if policy(err) {
		_ = sess.Destroy()
	}
}
