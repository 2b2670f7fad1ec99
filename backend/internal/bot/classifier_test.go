package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestEligible(t *testing.T) {
	botUserID := "bot-123"

	tests := []struct {
		name        string
		content     string
		authorIsBot bool
		channelType discordgo.ChannelType
		want        bool
	}{
		{
			name:        "mention in public thread",
			content:     "<@bot-123> hello",
			channelType: discordgo.ChannelTypeGuildPublicThread,
			want:        true,
		},
		{
			name:        "mention in private thread",
			content:     "<@bot-123> hello",
			channelType: discordgo.ChannelTypeGuildPrivateThread,
			want:        true,
		},
		{
			name:        "mention mid-text",
			content:     "so <@bot-123>, what now",
			channelType: discordgo.ChannelTypeGuildPublicThread,
			want:        true,
		},
		{
			name:        "no mention",
			content:     "hello there",
			channelType: discordgo.ChannelTypeGuildPublicThread,
			want:        false,
		},
		{
			name:        "mention of someone else",
			content:     "<@user-456> hello",
			channelType: discordgo.ChannelTypeGuildPublicThread,
			want:        false,
		},
		{
			name:        "bot author",
			content:     "<@bot-123> hello",
			authorIsBot: true,
			channelType: discordgo.ChannelTypeGuildPublicThread,
			want:        false,
		},
		{
			name:        "plain guild text channel",
			content:     "<@bot-123> hello",
			channelType: discordgo.ChannelTypeGuildText,
			want:        false,
		},
		{
			name:        "direct message channel",
			content:     "<@bot-123> hello",
			channelType: discordgo.ChannelTypeDM,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Eligible(tt.content, tt.authorIsBot, botUserID, tt.channelType)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEligible_Deterministic(t *testing.T) {
	// Same inputs, same answer, every time
	for i := 0; i < 3; i++ {
		assert.True(t, Eligible("<@b> hi", false, "b", discordgo.ChannelTypeGuildPublicThread))
	}
}

func TestMentionToken(t *testing.T) {
	assert.Equal(t, "<@42>", MentionToken("42"))
}
