package thread

import (
	"context"

	"go.uber.org/zap"

	"linkrelay/backend/internal/deep"
	"linkrelay/backend/pkg/logger"
)

// LookupResult is the outcome of a conversation lookup. A lookup never
// creates anything; creation is deferred to LinkMessage so the
// conversation node, its Contain edge and the first Reply edge go in as
// one insert.
type LookupResult struct {
	ConversationID int64
	Found          bool
}

// Engine reconstructs conversational structure in the link store: it maps
// channels to conversation links and attaches each ingested message to
// the current tip of its conversation's reply chain.
type Engine struct {
	store  deep.Client
	types  *deep.TypeTable
	logger *zap.Logger
}

// NewEngine creates a new threading engine
func NewEngine(store deep.Client, types *deep.TypeTable) *Engine {
	return &Engine{
		store:  store,
		types:  types,
		logger: logger.Get(),
	}
}

// LookupConversation finds the conversation link whose value equals the
// channel id. Pure lookup: absent conversations are reported, not created.
func (e *Engine) LookupConversation(ctx context.Context, channelID string) (LookupResult, error) {
	links, err := e.store.SelectByTypeValue(ctx, e.types.Conversation, channelID)
	if err != nil {
		return LookupResult{}, err
	}
	if len(links) == 0 {
		return LookupResult{}, nil
	}
	return LookupResult{ConversationID: links[0].ID, Found: true}, nil
}

// LinkMessage attaches an ingested message to its conversation.
//
// When the conversation exists, the attach point is the deepest message in
// the conversation's reply tree, falling back to the conversation link
// itself when the tree is empty. When it does not exist, the conversation
// link is created together with its Contain edge from the initiating user
// and the Reply edge from the message, as one insert. Two first-messages
// racing for the same new channel can each create a conversation; the
// store does not enforce uniqueness and neither does the engine.
func (e *Engine) LinkMessage(ctx context.Context, conv LookupResult, messageLinkID int64, channelID string, userLinkID int64) error {
	if !conv.Found {
		conversationID, err := e.store.Insert(ctx, deep.LinkSpec{
			TypeID: e.types.Conversation,
			Value:  deep.String(channelID),
			In: []deep.EdgeSpec{
				{TypeID: e.types.Contain, FromID: userLinkID},
				{TypeID: e.types.Reply, FromID: messageLinkID},
			},
		})
		if err != nil {
			return err
		}

		e.logger.Info("Conversation created",
			zap.Int64("conversation_id", conversationID),
			zap.String("channel_id", channelID),
			zap.Int64("message_id", messageLinkID),
		)
		return nil
	}

	rows, err := e.store.SelectTree(ctx, deep.TreeQuery{
		TreeID:     e.types.MessagingTree,
		RootID:     conv.ConversationID,
		LinkTypeID: e.types.Message,
	})
	if err != nil {
		return err
	}

	// Deepest message is the most recently threaded one. A conversation
	// that exists but has no messages yet falls back to the conversation
	// link itself.
	targetID := conv.ConversationID
	if len(rows) > 0 {
		targetID = rows[0].Link.ID
	}

	if _, err := e.store.Insert(ctx, deep.LinkSpec{
		TypeID: e.types.Reply,
		FromID: messageLinkID,
		ToID:   targetID,
	}); err != nil {
		return err
	}

	e.logger.Info("Message linked",
		zap.Int64("conversation_id", conv.ConversationID),
		zap.Int64("message_id", messageLinkID),
		zap.Int64("reply_to", targetID),
	)
	return nil
}

// Ingest runs the full store sequence for one admitted message: insert
// the message link, record its origin gateway id, then thread it into its
// conversation. A failure abandons the remaining steps; an already
// inserted message link without a Reply edge is an accepted partial state.
func (e *Engine) Ingest(ctx context.Context, content, gatewayMessageID, channelID string, userLinkID int64) error {
	messageLinkID, err := e.store.Insert(ctx, deep.LinkSpec{
		TypeID: e.types.Message,
		Value:  deep.String(content),
	})
	if err != nil {
		return err
	}

	// Origin gateway message id, kept as a self-edge. Metadata only: no
	// deduplication is performed against it.
	if _, err := e.store.Insert(ctx, deep.LinkSpec{
		TypeID: e.types.MessageID,
		FromID: messageLinkID,
		ToID:   messageLinkID,
		Value:  deep.String(gatewayMessageID),
	}); err != nil {
		return err
	}

	conv, err := e.LookupConversation(ctx, channelID)
	if err != nil {
		return err
	}

	return e.LinkMessage(ctx, conv, messageLinkID, channelID, userLinkID)
}
