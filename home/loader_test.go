package home

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

func TestMain(m *testing.M) {
	sys.InitLogger(true, false)
	m.Run()
}

func TestRouterRegisterCommand(t *testing.T) {
	r := NewRouter(context.Background())
	RegisterInfo(r)

	if got := len(r.Commands()); got != 2 {
		t.Fatalf("got %d commands, want 2", got)
	}
	for _, name := range []string{"about", "help"} {
		if _, ok := r.commandHandlers[name]; !ok {
			t.Errorf("no handler for %q", name)
		}
	}
}

func TestMusicRegister(t *testing.T) {
	r := NewRouter(context.Background())
	NewMusic(nil, nil, nil, nil, nil).Register(r)

	cmds := r.Commands()
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	music := cmds[0].(discord.SlashCommandCreate)
	subs := map[string]bool{}
	for _, opt := range music.Options {
		subs[opt.(discord.ApplicationCommandOptionSubCommand).Name] = true
	}
	for _, opt := range music.Options {
		sub := opt.(discord.ApplicationCommandOptionSubCommand)
		if sub.Name != "join" {
			continue
		}
		if len(sub.Options) != 1 {
			t.Fatalf("join has %d options, want 1", len(sub.Options))
		}
		ch, ok := sub.Options[0].(discord.ApplicationCommandOptionChannel)
		if !ok || ch.Name != "channel" || ch.Required {
			t.Errorf("join option = %#v, want optional channel", sub.Options[0])
		}
	}
	for _, name := range []string{"join", "play", "lounge", "pause", "resume", "skip", "nowplaying", "queue", "remove", "shuffle", "loop", "volume", "history", "stop", "leave"} {
		if !subs[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if _, ok := r.autocompleteHandlers["music"]; !ok {
		t.Error("no autocomplete handler for music")
	}
	if len(r.voiceStateUpdateHandlers) != 1 {
		t.Errorf("got %d voice state handlers, want 1", len(r.voiceStateUpdateHandlers))
	}
}

func TestCalculateCommandHash(t *testing.T) {
	a := []discord.ApplicationCommandCreate{discord.SlashCommandCreate{Name: "about", Description: "x"}}
	b := []discord.ApplicationCommandCreate{discord.SlashCommandCreate{Name: "about", Description: "y"}}

	if calculateCommandHash(a) != calculateCommandHash(a) {
		t.Error("hash is not stable")
	}
	if calculateCommandHash(a) == calculateCommandHash(b) {
		t.Error("different commands share a hash")
	}
}

func TestPresencePickAvoidsRepeat(t *testing.T) {
	p := &presence{}
	options := []string{"a", "b"}
	prev := p.pick(options)
	for range 20 {
		got := p.pick(options)
		if got == prev {
			t.Fatalf("picked %q twice in a row", got)
		}
		prev = got
	}
	if got := p.pick([]string{prev}); got != prev {
		t.Errorf("single option = %q, want %q", got, prev)
	}
}

func TestPresenceCandidates(t *testing.T) {
	p := &presence{registry: proc.NewRegistry(), startedAt: time.Now()}

	got := p.candidates(0)
	if len(got) != 2 || got[len(got)-1] != "/music play" {
		t.Errorf("candidates(0) = %v", got)
	}
	if got := p.candidates(42 * time.Millisecond); got[1] != "Ping: 42ms" {
		t.Errorf("candidates with latency = %v", got)
	}
}
