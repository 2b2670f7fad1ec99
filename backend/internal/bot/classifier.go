package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// allowedChannelTypes are the conversational channel kinds the relay
// ingests from.
var allowedChannelTypes = map[discordgo.ChannelType]bool{
	discordgo.ChannelTypeGuildPublicThread:  true,
	discordgo.ChannelTypeGuildPrivateThread: true,
}

// MentionToken returns the exact mention token for the bot's own identity
func MentionToken(botUserID string) string {
	return "<@" + botUserID + ">"
}

// Eligible reports whether an inbound message should be processed: its
// text contains the bot's mention token, its author is not a bot, and the
// channel type is an allowed conversational kind. Pure and deterministic;
// ineligible messages are dropped silently by the caller.
func Eligible(content string, authorIsBot bool, botUserID string, channelType discordgo.ChannelType) bool {
	if authorIsBot {
		return false
	}
	if !strings.Contains(content, MentionToken(botUserID)) {
		return false
	}
	return allowedChannelTypes[channelType]
}
