package home

import (
	"errors"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

func (m *Music) handleMusicQueue(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}

	page := 1
	if p, ok := data.OptInt("page"); ok {
		page = p
	}

	qp, err := s.Queue(page)
	if errors.Is(err, proc.ErrInvalidIndex) {
		replyError(event, fmt.Sprintf(sys.ErrInvalidQueuePage, page, qp.Pages))
		return
	} else if err != nil {
		replyError(event, userMessage(err))
		return
	}
	reply(event, formatQueue(qp), false)
}

func (m *Music) handleMusicRemove(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}

	pos := data.Int("position")
	t, err := s.Remove(pos)
	if errors.Is(err, proc.ErrInvalidIndex) {
		replyError(event, fmt.Sprintf(sys.ErrInvalidQueueIndex, pos, s.QueueLen()))
		return
	} else if err != nil {
		replyError(event, userMessage(err))
		return
	}
	reply(event, fmt.Sprintf(sys.MsgRemoved, escapeMarkdown(t.Title())), false)
}

func (m *Music) handleMusicShuffle(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}
	reply(event, fmt.Sprintf(sys.MsgShuffled, s.Shuffle()), false)
}
