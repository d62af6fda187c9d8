package home

import (
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

func (m *Music) handleMusicPause(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err == nil {
		err = s.Pause()
	}
	if err != nil {
		replyError(event, userMessage(err))
		return
	}
	reply(event, sys.MsgPaused, false)
}

func (m *Music) handleMusicResume(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err == nil {
		err = s.Resume()
	}
	if err != nil {
		replyError(event, userMessage(err))
		return
	}
	reply(event, sys.MsgResumed, false)
}
