package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"linkrelay/backend/internal/thread"
	apperrors "linkrelay/backend/pkg/errors"
	"linkrelay/backend/pkg/logger"
)

// ChannelAPI is the slice of the gateway client the handler reads from:
// channel metadata for classification and referenced messages for quote
// flattening. *discordgo.Session satisfies it.
type ChannelAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// FatalPolicy decides whether a handler failure tears the session down.
type FatalPolicy func(error) bool

// DefaultFatalPolicy treats every handler failure as session-fatal: the
// session is destroyed best-effort and the process keeps running,
// accepting future init requests.
func DefaultFatalPolicy(error) bool {
	return true
}

// Handler processes inbound gateway message events: classify, assemble
// content, then hand the message to the threading engine.
type Handler struct {
	engine     *thread.Engine
	userLinkID int64
	logger     *zap.Logger
}

// NewHandler creates a new message handler
func NewHandler(engine *thread.Engine, userLinkID int64) *Handler {
	return &Handler{
		engine:     engine,
		userLinkID: userLinkID,
		logger:     logger.Get(),
	}
}

// Handle runs the pipeline for one message-create event. A nil return
// covers both successful ingestion and a silent classifier drop; any
// error means the store sequence for this message was abandoned where it
// stopped.
func (h *Handler) Handle(ctx context.Context, api ChannelAPI, botUserID string, m *discordgo.MessageCreate) error {
	channel, err := api.Channel(m.ChannelID)
	if err != nil {
		return apperrors.NewGatewayChannelFetch(m.ChannelID, err)
	}

	if !Eligible(m.Content, m.Author.Bot, botUserID, channel.Type) {
		h.logger.Debug("Message dropped",
			zap.String("channel_id", m.ChannelID),
			zap.String("message_id", m.ID),
		)
		return nil
	}

	h.logger.Info("Processing message",
		zap.String("channel_id", m.ChannelID),
		zap.String("message_id", m.ID),
		zap.String("author_id", m.Author.ID),
	)

	content := m.Content
	if m.MessageReference != nil {
		refChannelID := m.MessageReference.ChannelID
		if refChannelID == "" {
			refChannelID = m.ChannelID
		}
		referenced, err := api.ChannelMessage(refChannelID, m.MessageReference.MessageID)
		if err != nil {
			return apperrors.NewGatewayReferenceFetch(m.MessageReference.MessageID, err)
		}
		content = FlattenQuote(referenced.Content, m.Content)
	}

	return h.engine.Ingest(ctx, content, m.ID, m.ChannelID, h.userLinkID)
}
