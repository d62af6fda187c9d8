package home

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/leeineian/jmusic/media"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

const (
	historyLimit     = 10
	choiceNameLimit  = 100
	choiceValueLimit = 100
)

// userMessage maps a session or resolver error to the text shown in Discord.
func userMessage(err error) string {
	if msg, ok := knownMessage(err); ok {
		return msg
	}
	return fmt.Sprintf(sys.ErrUnexpected, err)
}

func knownMessage(err error) (string, bool) {
	var rerr *proc.ResolutionError
	switch {
	case errors.Is(err, errUserNotInVoice):
		return sys.ErrUserNotInVoice, true
	case errors.Is(err, proc.ErrNotConnected):
		return sys.ErrBotNotConnected, true
	case errors.Is(err, proc.ErrNothingPlaying):
		return sys.ErrNothingPlaying, true
	case errors.Is(err, proc.ErrSessionClosed):
		return sys.ErrSessionClosed, true
	case errors.Is(err, media.ErrEmptyQuery):
		return sys.ErrEmptyQuery, true
	case errors.As(err, &rerr):
		return sys.ErrResolveFailed, true
	}
	return "", false
}

// joinFailure hides transport errors behind a generic join message.
func joinFailure(err error) string {
	if msg, ok := knownMessage(err); ok {
		return msg
	}
	return sys.ErrJoinFailed
}

// trackLink renders a track as a markdown link, or bare title for streams
// without a page URL.
func trackLink(t *proc.Track) string {
	title := sys.Truncate(escapeMarkdown(t.Title()), 80)
	if t.URL() == "" {
		return "**" + title + "**"
	}
	return fmt.Sprintf("[%s](%s)", title, t.URL())
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]", "*", "\\*", "_", "\\_", "`", "\\`")
	return r.Replace(s)
}

func trackLength(t *proc.Track) string {
	if t.Source == nil || t.Source.Live {
		return "🔴 Live"
	}
	return sys.FormatDuration(t.Source.Duration)
}

// trackCard is used for both now playing and queued messages.
func trackCard(title string, t *proc.Track, footer string) discord.ContainerComponent {
	text := fmt.Sprintf("**%s**\n%s\n-# %s", title, trackLink(t), footer)
	if t.Source == nil || t.Source.Thumbnail == "" {
		return discord.NewContainer(discord.NewTextDisplay(text))
	}
	return discord.NewContainer(
		discord.NewSection(
			discord.NewTextDisplay(text),
		).WithAccessory(
			discord.ThumbnailComponent{Media: discord.UnfurledMediaItem{URL: t.Source.Thumbnail}},
		),
	)
}

func nowPlayingCard(t *proc.Track) discord.ContainerComponent {
	return trackCard(sys.MsgNowPlayingTitle, t, fmt.Sprintf(sys.MsgNowPlayingFooter, t.RequesterName, trackLength(t)))
}

func queuedCard(t *proc.Track, pos int) discord.ContainerComponent {
	return trackCard(sys.MsgQueuedTitle, t, fmt.Sprintf(sys.MsgQueuedFooter, pos, t.RequesterName))
}

// formatQueue renders one page of the queue. Positions continue across pages.
func formatQueue(qp proc.QueuePage) string {
	var sb strings.Builder
	if qp.Current != nil {
		sb.WriteString(fmt.Sprintf(sys.MsgQueueNowPlaying, sys.Truncate(escapeMarkdown(qp.Current.Title()), 80), qp.Current.URL()))
	}
	sb.WriteString(fmt.Sprintf(sys.MsgQueueHeader, qp.Page, qp.Pages, qp.Total))
	if len(qp.Tracks) == 0 {
		sb.WriteString(sys.MsgQueueEmpty)
	}
	for i, t := range qp.Tracks {
		sb.WriteString(fmt.Sprintf(sys.MsgQueueItem, qp.Offset+i+1, sys.Truncate(escapeMarkdown(t.Title()), 60), t.URL(), trackLength(t)))
	}
	if qp.Loop {
		sb.WriteString(sys.MsgQueueLoop)
	}
	sb.WriteString(fmt.Sprintf(sys.MsgQueueVolume, qp.Volume))
	return sb.String()
}

func formatHistory(records []*sys.PlayRecord) string {
	if len(records) == 0 {
		return sys.MsgHistoryEmpty
	}
	var sb strings.Builder
	sb.WriteString(sys.MsgHistoryHeader)
	for i, r := range records {
		sb.WriteString(fmt.Sprintf(sys.MsgHistoryItem, i+1, sys.Truncate(escapeMarkdown(r.Title), 60), r.URL, r.PlayedAt.Unix()))
	}
	return sb.String()
}

// autocompleteChoices converts search hits into Discord choices. A URL too
// long for a choice value falls back to the title, which resolves as a search.
func autocompleteChoices(results []media.SearchResult) []discord.AutocompleteChoice {
	choices := make([]discord.AutocompleteChoice, 0, len(results))
	for _, r := range results {
		value := r.URL
		if len(value) > choiceValueLimit {
			value = sys.Truncate(r.Title, choiceValueLimit)
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  sys.Truncate(r.Title, choiceNameLimit),
			Value: value,
		})
	}
	return choices
}
