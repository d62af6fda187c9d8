package home

import (
	"context"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/media"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

const autocompleteTimeout = 2500 * time.Millisecond

func (m *Music) handleMusicPlay(event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData, guildID snowflake.ID) {
	query := strings.TrimSpace(data.String("query"))
	if query == "" {
		replyError(event, sys.ErrEmptyQuery)
		return
	}

	_ = event.DeferCreateMessage(false)

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	s, err := m.ensureVoice(ctx, event, guildID)
	if err != nil {
		editReply(event, joinFailure(err))
		return
	}

	src, err := m.resolver.Resolve(ctx, query)
	if err != nil {
		editReply(event, userMessage(err))
		return
	}
	m.enqueue(event, s, src)
}

func (m *Music) handleMusicLounge(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	_ = event.DeferCreateMessage(false)

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	s, err := m.ensureVoice(ctx, event, guildID)
	if err != nil {
		editReply(event, joinFailure(err))
		return
	}
	m.enqueue(event, s, media.Direct(m.cfg.LoungeURL, sys.MsgLoungeTitle))
}

func (m *Music) enqueue(event *events.ApplicationCommandInteractionCreate, s *proc.Session, src *proc.AudioSource) {
	t := proc.NewTrack(src, event.User().ID, event.User().Username)
	pos, err := s.Enqueue(t)
	if err != nil {
		src.Release()
		editReply(event, userMessage(err))
		return
	}
	editReplyCard(event, queuedCard(t, pos))
}

// handleMusicAutocomplete offers search hits while the user types a query.
func (m *Music) handleMusicAutocomplete(event *events.AutocompleteInteractionCreate) {
	focused := event.Data.Focused()
	if focused.Name != "query" {
		_ = event.AutocompleteResult(nil)
		return
	}

	q := strings.TrimSpace(focused.String())
	if q == "" || media.IsURL(q) || m.searcher == nil {
		_ = event.AutocompleteResult(nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()
	_ = event.AutocompleteResult(autocompleteChoices(m.searcher.Search(ctx, q)))
}
