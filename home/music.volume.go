package home

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

// handleMusicVolume shows the volume, or changes it and remembers it for the
// guild's next session.
func (m *Music) handleMusicVolume(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}

	percent, ok := data.OptInt("percent")
	if !ok {
		reply(event, fmt.Sprintf(sys.MsgVolumeCurrent, s.Volume()), true)
		return
	}

	applied := s.SetVolume(percent)
	reply(event, fmt.Sprintf(sys.MsgVolumeChanged, applied), false)

	sys.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sys.SetGuildVolume(ctx, guildID, applied); err != nil {
			sys.LogWarn(sys.MsgSettingsSaveFail, guildID, err)
		}
	})
}
