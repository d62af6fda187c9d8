package home

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/media"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

func track(title, url string, d time.Duration) *proc.Track {
	return proc.NewTrack(&proc.AudioSource{Title: title, URL: url, Duration: d}, 1, "alice")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errUserNotInVoice, sys.ErrUserNotInVoice},
		{proc.ErrNotConnected, sys.ErrBotNotConnected},
		{fmt.Errorf("wrapped: %w", proc.ErrNothingPlaying), sys.ErrNothingPlaying},
		{proc.ErrSessionClosed, sys.ErrSessionClosed},
		{media.ErrEmptyQuery, sys.ErrEmptyQuery},
		{&proc.ResolutionError{Query: "q", Err: errors.New("boom")}, sys.ErrResolveFailed},
		{errors.New("boom"), fmt.Sprintf(sys.ErrUnexpected, "boom")},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("userMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestJoinTarget(t *testing.T) {
	caller := func() (snowflake.ID, bool) { return 7, true }
	away := func() (snowflake.ID, bool) { return 0, false }

	named := discord.SlashCommandInteractionData{
		Options: map[string]discord.SlashCommandOption{
			"channel": {Name: "channel", Type: discord.ApplicationCommandOptionTypeChannel, Value: []byte(`"42"`)},
		},
	}
	if id, ok := joinTarget(named, away); !ok || id != 42 {
		t.Errorf("joinTarget(channel option) = %d, %v; want 42, true", id, ok)
	}

	var empty discord.SlashCommandInteractionData
	if id, ok := joinTarget(empty, caller); !ok || id != 7 {
		t.Errorf("joinTarget(no option) = %d, %v; want caller's 7", id, ok)
	}
	if _, ok := joinTarget(empty, away); ok {
		t.Error("joinTarget found a channel for a caller outside voice")
	}
}

func TestJoinFailure(t *testing.T) {
	if got := joinFailure(errors.New("udp timeout")); got != sys.ErrJoinFailed {
		t.Errorf("joinFailure(unknown) = %q, want %q", got, sys.ErrJoinFailed)
	}
	if got := joinFailure(errUserNotInVoice); got != sys.ErrUserNotInVoice {
		t.Errorf("joinFailure(not in voice) = %q", got)
	}
}

func TestFormatQueue(t *testing.T) {
	qp := proc.QueuePage{
		Tracks:  []*proc.Track{track("eleven", "https://x/11", 90 * time.Second), track("twelve", "https://x/12", time.Hour)},
		Page:    2,
		Pages:   2,
		Total:   12,
		Offset:  10,
		Current: track("playing", "https://x/p", time.Minute),
		Loop:    true,
		Volume:  80,
	}
	got := formatQueue(qp)

	for _, want := range []string{
		fmt.Sprintf(sys.MsgQueueNowPlaying, "playing", "https://x/p"),
		fmt.Sprintf(sys.MsgQueueHeader, 2, 2, 12),
		fmt.Sprintf(sys.MsgQueueItem, 11, "eleven", "https://x/11", "1:30"),
		fmt.Sprintf(sys.MsgQueueItem, 12, "twelve", "https://x/12", "1:00:00"),
		sys.MsgQueueLoop,
		fmt.Sprintf(sys.MsgQueueVolume, 80),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("formatQueue missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatQueueEmpty(t *testing.T) {
	got := formatQueue(proc.QueuePage{Page: 1, Pages: 1, Volume: 50})
	if !strings.Contains(got, sys.MsgQueueEmpty) {
		t.Errorf("expected empty marker in %q", got)
	}
	if strings.Contains(got, sys.MsgQueueLoop) {
		t.Errorf("loop shown while disabled: %q", got)
	}
}

func TestFormatHistory(t *testing.T) {
	if got := formatHistory(nil); got != sys.MsgHistoryEmpty {
		t.Errorf("formatHistory(nil) = %q", got)
	}

	at := time.Unix(1700000000, 0)
	got := formatHistory([]*sys.PlayRecord{
		{Title: "first", URL: "https://x/1", PlayedAt: at},
		{Title: "second", URL: "https://x/2", PlayedAt: at},
	})
	if !strings.HasPrefix(got, sys.MsgHistoryHeader) {
		t.Errorf("missing header: %q", got)
	}
	if want := fmt.Sprintf(sys.MsgHistoryItem, 2, "second", "https://x/2", int64(1700000000)); !strings.Contains(got, want) {
		t.Errorf("missing %q in %q", want, got)
	}
}

func TestTrackLink(t *testing.T) {
	if got := trackLink(track("a_b", "https://x", 0)); got != "[a\\_b](https://x)" {
		t.Errorf("trackLink = %q", got)
	}
	if got := trackLink(track("radio", "", 0)); got != "**radio**" {
		t.Errorf("trackLink without url = %q", got)
	}
}

func TestTrackLength(t *testing.T) {
	live := proc.NewTrack(&proc.AudioSource{Title: "radio", Live: true}, 1, "alice")
	if got := trackLength(live); got != "🔴 Live" {
		t.Errorf("trackLength(live) = %q", got)
	}
	if got := trackLength(track("song", "", 3*time.Minute+5*time.Second)); got != "3:05" {
		t.Errorf("trackLength = %q", got)
	}
}

func TestAutocompleteChoices(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 120)
	choices := autocompleteChoices([]media.SearchResult{
		{Title: "short", URL: "https://youtu.be/abc"},
		{Title: "long url", URL: long},
	})
	if len(choices) != 2 {
		t.Fatalf("got %d choices, want 2", len(choices))
	}
	first := choices[0].(discord.AutocompleteChoiceString)
	if first.Name != "short" || first.Value != "https://youtu.be/abc" {
		t.Errorf("first choice = %+v", first)
	}
	second := choices[1].(discord.AutocompleteChoiceString)
	if second.Value != "long url" {
		t.Errorf("long url should fall back to title, got %q", second.Value)
	}
}

func TestSkipMessage(t *testing.T) {
	tr := track("song", "", 0)
	tests := []struct {
		res  proc.SkipResult
		want string
	}{
		{proc.SkipResult{Skipped: true, Track: tr}, fmt.Sprintf(sys.MsgSkipped, "song")},
		{proc.SkipResult{AlreadyVoted: true, Votes: 1, Required: 3, Track: tr}, fmt.Sprintf(sys.MsgSkipAlreadyVoted, 1, 3)},
		{proc.SkipResult{Votes: 2, Required: 3, Track: tr}, fmt.Sprintf(sys.MsgSkipVoteAdded, 2, 3)},
	}
	for _, tt := range tests {
		if got := skipMessage(tt.res); got != tt.want {
			t.Errorf("skipMessage(%+v) = %q, want %q", tt.res, got, tt.want)
		}
	}
}

func TestHelpText(t *testing.T) {
	got := helpText([]discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{Name: "about", Description: "About this bot"},
		discord.SlashCommandCreate{
			Name:        "music",
			Description: "Music",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{Name: "play", Description: "Play"},
			},
		},
	})
	for _, want := range []string{
		fmt.Sprintf(sys.MsgHelpItem, "about", "About this bot"),
		fmt.Sprintf(sys.MsgHelpItem, "music play", "Play"),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("helpText missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "`/music` ·") {
		t.Errorf("group with subcommands listed itself: %q", got)
	}
}
