package home

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/leeineian/jmusic/sys"
)

const aboutThumbnail = "https://i.imgur.com/G2l6t3X.png"

// RegisterInfo adds /about and /help.
func RegisterInfo(r *Router) {
	r.RegisterCommand(discord.SlashCommandCreate{
		Name:        "about",
		Description: "About this bot",
	}, func(event *events.ApplicationCommandInteractionCreate) {
		replyCard(event, aboutCard(r.startedAt), false)
	})

	r.RegisterCommand(discord.SlashCommandCreate{
		Name:        "help",
		Description: "List the available commands",
	}, func(event *events.ApplicationCommandInteractionCreate) {
		reply(event, helpText(r.Commands()), true)
	})
}

func aboutCard(startedAt time.Time) discord.ContainerComponent {
	text := fmt.Sprintf("**%s**\n%s\n-# Up for %s",
		fmt.Sprintf(sys.MsgAboutTitle, sys.GetProjectName()),
		sys.MsgAboutDescription,
		sys.FormatDuration(time.Since(startedAt).Truncate(time.Second)))
	return discord.NewContainer(
		discord.NewSection(
			discord.NewTextDisplay(text),
		).WithAccessory(
			discord.ThumbnailComponent{Media: discord.UnfurledMediaItem{URL: aboutThumbnail}},
		),
	)
}

// helpText lists top-level commands and their subcommands.
func helpText(cmds []discord.ApplicationCommandCreate) string {
	var sb strings.Builder
	sb.WriteString("**" + sys.MsgHelpTitle + "**\n")
	for _, c := range cmds {
		slash, ok := c.(discord.SlashCommandCreate)
		if !ok {
			continue
		}
		subs := 0
		for _, opt := range slash.Options {
			if sub, ok := opt.(discord.ApplicationCommandOptionSubCommand); ok {
				sb.WriteString(fmt.Sprintf(sys.MsgHelpItem, slash.Name+" "+sub.Name, sub.Description))
				subs++
			}
		}
		if subs == 0 {
			sb.WriteString(fmt.Sprintf(sys.MsgHelpItem, slash.Name, slash.Description))
		}
	}
	return sb.String()
}
