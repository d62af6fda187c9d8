package home

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"
	"github.com/leeineian/jmusic/proc"
	"github.com/leeineian/jmusic/sys"
)

// configKeyStatus hides the rotating status when set to "false".
const configKeyStatus = "status_visible"

func rotationInterval() time.Duration {
	return time.Duration(15+rand.IntN(46)) * time.Second
}

// presence rotates the bot's activity between a few live figures.
type presence struct {
	registry  *proc.Registry
	startedAt time.Time

	mu   sync.Mutex
	last string
}

// RegisterPresence starts the status rotator once the client is ready. It
// must be called before the callback that starts the daemons.
func RegisterPresence(r *Router, registry *proc.Registry) {
	p := &presence{registry: registry, startedAt: r.startedAt}
	r.OnClientReady(func(ctx context.Context, client *bot.Client) {
		sys.RegisterDaemon(sys.LogInfo, func(ctx context.Context) (bool, func(), func()) {
			return true, func() { p.run(ctx, client) }, nil
		})
	})
}

func (p *presence) run(ctx context.Context, client *bot.Client) {
	for {
		next := rotationInterval()
		p.update(ctx, client)
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return
		}
	}
}

func (p *presence) update(ctx context.Context, client *bot.Client) {
	visible, err := sys.GetBotConfig(ctx, configKeyStatus)
	if err != nil || visible == "false" {
		_ = client.SetPresence(ctx, gateway.WithOnlineStatus(discord.OnlineStatusOnline))
		return
	}

	var latency time.Duration
	if client.Gateway != nil {
		latency = client.Gateway.Latency()
	}
	status := p.pick(p.candidates(latency))

	if err := client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		gateway.WithListeningActivity(status),
	); err != nil {
		sys.LogDebug(sys.MsgGenericError, err)
	}
}

// candidates lists the non-empty statuses, falling back to a usage hint.
func (p *presence) candidates(latency time.Duration) []string {
	var out []string
	if n := p.registry.Len(); n > 0 {
		out = append(out, fmt.Sprintf("music in %d server(s)", n))
	}
	out = append(out, "Uptime: "+sys.FormatDuration(time.Since(p.startedAt).Truncate(time.Second)))
	if latency > 0 {
		out = append(out, fmt.Sprintf("Ping: %dms", latency.Milliseconds()))
	}
	out = append(out, "/music play")
	return out
}

// pick chooses a random status other than the last one shown.
func (p *presence) pick(options []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var choices []string
	for _, s := range options {
		if s != p.last {
			choices = append(choices, s)
		}
	}
	if len(choices) == 0 {
		choices = options
	}
	p.last = choices[rand.IntN(len(choices))]
	return p.last
}
