package home

import (
	"context"
	"time"

	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

func (m *Music) handleMusicHistory(event *events.ApplicationCommandInteractionCreate, guildID snowflake.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	records, err := sys.GetPlayHistory(ctx, guildID, historyLimit)
	if err != nil {
		sys.LogWarn(sys.MsgGenericError, err)
		replyError(event, sys.ErrHistoryUnavailable)
		return
	}
	reply(event, formatHistory(records), true)
}
