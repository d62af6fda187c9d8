package home

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

// Router holds the slash commands and dispatches interactions to them.
type Router struct {
	ctx       context.Context
	startedAt time.Time

	commands                 []discord.ApplicationCommandCreate
	commandHandlers          map[string]func(event *events.ApplicationCommandInteractionCreate)
	autocompleteHandlers     map[string]func(event *events.AutocompleteInteractionCreate)
	voiceStateUpdateHandlers []func(event *events.GuildVoiceStateUpdate)
	onReadyCallbacks         []func(ctx context.Context, client *bot.Client)
	readyOnce                sync.Once
}

func NewRouter(ctx context.Context) *Router {
	return &Router{
		ctx:                  ctx,
		startedAt:            time.Now(),
		commandHandlers:      make(map[string]func(event *events.ApplicationCommandInteractionCreate)),
		autocompleteHandlers: make(map[string]func(event *events.AutocompleteInteractionCreate)),
	}
}

// --- Command & Handler Registration ---

func (r *Router) RegisterCommand(cmd discord.ApplicationCommandCreate, handler func(event *events.ApplicationCommandInteractionCreate)) {
	r.commands = append(r.commands, cmd)
	switch c := cmd.(type) {
	case discord.SlashCommandCreate:
		r.commandHandlers[c.CommandName()] = handler
	case discord.UserCommandCreate:
		r.commandHandlers[c.CommandName()] = handler
	case discord.MessageCommandCreate:
		r.commandHandlers[c.CommandName()] = handler
	}
}

func (r *Router) RegisterAutocompleteHandler(cmdName string, handler func(event *events.AutocompleteInteractionCreate)) {
	r.autocompleteHandlers[cmdName] = handler
}

func (r *Router) RegisterVoiceStateUpdateHandler(handler func(event *events.GuildVoiceStateUpdate)) {
	r.voiceStateUpdateHandlers = append(r.voiceStateUpdateHandlers, handler)
}

func (r *Router) OnClientReady(cb func(ctx context.Context, client *bot.Client)) {
	r.onReadyCallbacks = append(r.onReadyCallbacks, cb)
}

// Commands returns the registered command definitions.
func (r *Router) Commands() []discord.ApplicationCommandCreate {
	return r.commands
}

// ConfigOpts wires the router's listeners into a disgo client.
func (r *Router) ConfigOpts() []bot.ConfigOpt {
	return []bot.ConfigOpt{
		bot.WithEventListenerFunc(r.onApplicationCommandInteraction),
		bot.WithEventListenerFunc(r.onAutocompleteInteraction),
		bot.WithEventListenerFunc(r.onVoiceStateUpdate),
		bot.WithEventListenerFunc(r.onReady),
	}
}

// --- Command Syncing Logic ---

// calculateCommandHash generates a SHA256 hash of the commands slice
func calculateCommandHash(cmds []discord.ApplicationCommandCreate) string {
	data, err := json.Marshal(cmds)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// RegisterCommands syncs commands globally, or to guildIDStr when set. The
// upload is skipped when nothing changed since the last run.
func (r *Router) RegisterCommands(client *bot.Client, guildIDStr string, force bool) error {
	ctx := context.Background()
	lastGuildID, _ := sys.GetBotConfig(ctx, "last_guild_id")
	lastMode, _ := sys.GetBotConfig(ctx, "last_reg_mode")
	lastHash, _ := sys.GetBotConfig(ctx, "last_cmd_hash")

	isProduction := guildIDStr == ""
	currentMode := "guild"
	if isProduction {
		currentMode = "global"
	}

	sys.LogInfo(sys.MsgLoaderSyncCommands, strings.ToUpper(currentMode))

	currentHash := calculateCommandHash(r.commands)
	shouldRegister := force || currentHash == "" || currentHash != lastHash || currentMode != lastMode
	if !shouldRegister {
		sys.LogInfo(sys.MsgLoaderUpToDate, currentHash[:8])
	}

	if isProduction {
		if shouldRegister {
			sys.LogInfo(sys.MsgLoaderProdStarting)
			created, err := client.Rest.SetGlobalCommands(client.ApplicationID, r.commands)
			if err != nil {
				return fmt.Errorf(sys.MsgLoaderProdFail, err)
			}
			for _, cmd := range created {
				sys.LogInfo(sys.MsgLoaderProdRegistered, cmd.Name())
			}
		}
		if lastGuildID != "" {
			r.clearGuildCommands(client, lastGuildID)
		}
	} else {
		guildID, err := snowflake.Parse(guildIDStr)
		if err != nil {
			return fmt.Errorf("invalid GUILD_ID: %w", err)
		}

		if shouldRegister {
			sys.LogInfo(sys.MsgLoaderDevStarting, guildIDStr)
			created, err := client.Rest.SetGuildCommands(client.ApplicationID, guildID, r.commands)
			if err != nil {
				sys.LogWarn(sys.MsgLoaderDevFail, err)
			} else {
				for _, cmd := range created {
					sys.LogInfo(sys.MsgLoaderDevRegistered, cmd.Name())
				}
			}
		}

		if lastMode != currentMode || force {
			if cmds, err := client.Rest.GetGlobalCommands(client.ApplicationID, false); err == nil && len(cmds) > 0 {
				_, _ = client.Rest.SetGlobalCommands(client.ApplicationID, []discord.ApplicationCommandCreate{})
			}
		}
		if lastGuildID != "" && lastGuildID != guildIDStr {
			r.clearGuildCommands(client, lastGuildID)
		}
	}

	_ = sys.SetBotConfig(ctx, "last_reg_mode", currentMode)
	_ = sys.SetBotConfig(ctx, "last_guild_id", guildIDStr)
	if currentHash != "" {
		_ = sys.SetBotConfig(ctx, "last_cmd_hash", currentHash)
	}
	return nil
}

func (r *Router) clearGuildCommands(client *bot.Client, guildIDStr string) {
	id, err := snowflake.Parse(guildIDStr)
	if err != nil {
		return
	}
	if cmds, err := client.Rest.GetGuildCommands(client.ApplicationID, id, false); err == nil && len(cmds) > 0 {
		sys.LogInfo(sys.MsgLoaderCleanup, guildIDStr)
		_, _ = client.Rest.SetGuildCommands(client.ApplicationID, id, []discord.ApplicationCommandCreate{})
	}
}

// --- Event Handlers ---

func (r *Router) onReady(event *events.Ready) {
	botUser := event.User
	sys.LogInfo(sys.MsgBotReady, botUser.Username, botUser.ID.String(), os.Getpid(), time.Since(r.startedAt).Milliseconds())

	r.readyOnce.Do(func() {
		for _, cb := range r.onReadyCallbacks {
			cb(r.ctx, event.Client())
		}
	})
}

func (r *Router) onApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	if h, ok := r.commandHandlers[event.Data.CommandName()]; ok {
		sys.SafeGo(func() { h(event) })
	}
}

func (r *Router) onAutocompleteInteraction(event *events.AutocompleteInteractionCreate) {
	if h, ok := r.autocompleteHandlers[event.Data.CommandName]; ok {
		sys.SafeGo(func() { h(event) })
	}
}

func (r *Router) onVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	for _, h := range r.voiceStateUpdateHandlers {
		sys.SafeGo(func() { h(event) })
	}
}
