package home

import (
	"fmt"

	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

func (m *Music) handleMusicSkip(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}

	res, err := s.RequestSkip(event.User().ID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}
	reply(event, skipMessage(res), res.AlreadyVoted)
}

func skipMessage(res proc.SkipResult) string {
	switch {
	case res.Skipped:
		return fmt.Sprintf(sys.MsgSkipped, escapeMarkdown(res.Track.Title()))
	case res.AlreadyVoted:
		return fmt.Sprintf(sys.MsgSkipAlreadyVoted, res.Votes, res.Required)
	default:
		return fmt.Sprintf(sys.MsgSkipVoteAdded, res.Votes, res.Required)
	}
}

func (m *Music) handleMusicNowPlaying(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	s, err := m.connectedSession(guildID)
	if err != nil {
		replyError(event, userMessage(err))
		return
	}
	t := s.NowPlaying()
	if t == nil {
		replyError(event, sys.ErrNothingPlaying)
		return
	}
	replyCard(event, nowPlayingCard(t), false)
}
