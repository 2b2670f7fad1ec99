package deep

import (
	"context"
)

// Type namespaces. Types are themselves links, resolved by (space, name).
const (
	SpaceCore      = "core"
	SpaceMessaging = "messaging"
	SpaceBot       = "bot"
)

// Type and tree names. User is seeded but never resolved by the engine:
// the operator's user link id arrives from the deepToken instead.
const (
	NameUser          = "User"
	NameContain       = "Contain"
	NameContainTree   = "containTree"
	NameMessage       = "Message"
	NameAuthor        = "Author"
	NameMessagingTree = "messagingTree"
	NameConversation  = "Conversation"
	NameReply         = "Reply"
	NameMessageID     = "MessageId"
	NameBotToken      = "BotToken"
)

// TypeTable is the immutable table of resolved type ids the threading
// engine works with. It is built once at startup; types are process-wide
// constants for a given deployment, so no invalidation is needed.
type TypeTable struct {
	Conversation  int64
	Message       int64
	Author        int64
	Contain       int64
	Reply         int64
	MessageID     int64
	BotToken      int64
	MessagingTree int64
	ContainTree   int64
}

// ResolveTypes resolves every type the engine uses. Any missing type is a
// configuration error and fails the whole pass.
func ResolveTypes(ctx context.Context, client Client) (*TypeTable, error) {
	table := &TypeTable{}

	lookups := []struct {
		space string
		name  string
		dst   *int64
	}{
		{SpaceBot, NameConversation, &table.Conversation},
		{SpaceMessaging, NameMessage, &table.Message},
		{SpaceMessaging, NameAuthor, &table.Author},
		{SpaceCore, NameContain, &table.Contain},
		{SpaceBot, NameReply, &table.Reply},
		{SpaceBot, NameMessageID, &table.MessageID},
		{SpaceBot, NameBotToken, &table.BotToken},
		{SpaceMessaging, NameMessagingTree, &table.MessagingTree},
		{SpaceCore, NameContainTree, &table.ContainTree},
	}

	for _, lookup := range lookups {
		id, err := client.ID(ctx, lookup.space, lookup.name)
		if err != nil {
			return nil, err
		}
		*lookup.dst = id
	}

	return table, nil
}

// LoadBotToken reads the gateway token stored as a BotToken link under the
// operator's user link in the contain tree. Returns an empty string when
// no token link exists.
func LoadBotToken(ctx context.Context, client Client, types *TypeTable, userLinkID int64) (string, error) {
	links, err := client.SelectContained(ctx, types.ContainTree, userLinkID, types.BotToken)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return "", nil
	}
	return links[0].Value, nil
}
