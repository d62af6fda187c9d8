package sys

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mattn/go-sqlite3"
)

// --- Connection & Lifecycle ---

var DB *sql.DB

func InitDatabase(ctx context.Context, dataSourceName string) error {
	// The driver registers itself via its init() function
	_ = sqlite3.SQLiteDriver{}

	var err error
	DB, err = sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(5)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA cache_size=-2000;",
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, p := range pragmas {
		if _, err := DB.ExecContext(initCtx, p); err != nil {
			return fmt.Errorf(MsgDatabasePragmaError, p, err)
		}
	}

	tx, err := DB.BeginTx(initCtx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tableQueries := []string{
		`CREATE TABLE IF NOT EXISTS bot_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			volume INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			requester_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			played_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_guild ON play_history (guild_id, played_at DESC)`,
	}

	for _, q := range tableQueries {
		if _, err := tx.ExecContext(initCtx, q); err != nil {
			return fmt.Errorf(MsgDatabaseTableError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	LogDatabase(MsgDatabaseInitSuccess)
	return nil
}

func CloseDatabase() {
	if DB != nil {
		DB.Close()
	}
}

// --- Bot Persistence ---

// BotConfig helpers are used by the loader for mode tracking and state.
func GetBotConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := DB.QueryRowContext(ctx, "SELECT value FROM bot_config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func SetBotConfig(ctx context.Context, key, value string) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO bot_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// --- Guild Settings ---

// GetGuildVolume returns the stored volume percentage, or ok=false when the
// guild never changed it.
func GetGuildVolume(ctx context.Context, guildID snowflake.ID) (int, bool, error) {
	if DB == nil {
		return 0, false, nil
	}
	var volume int
	err := DB.QueryRowContext(ctx, "SELECT volume FROM guild_settings WHERE guild_id = ?", guildID.String()).Scan(&volume)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return ClampVolume(volume), true, nil
}

func SetGuildVolume(ctx context.Context, guildID snowflake.ID, percent int) error {
	if DB == nil {
		return nil
	}
	_, err := DB.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, volume) VALUES (?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET volume = excluded.volume, updated_at = CURRENT_TIMESTAMP
	`, guildID.String(), ClampVolume(percent))
	return err
}

// --- Play History ---

type PlayRecord struct {
	ID          int64
	GuildID     snowflake.ID
	RequesterID snowflake.ID
	Title       string
	URL         string
	PlayedAt    time.Time
}

const maxHistoryPerGuild = 100

func AddPlayHistory(ctx context.Context, r *PlayRecord) error {
	if DB == nil {
		return nil
	}
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now()
	}
	_, err := DB.ExecContext(ctx, `
		INSERT INTO play_history (guild_id, requester_id, title, url, played_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.GuildID.String(), r.RequesterID.String(), r.Title, r.URL, r.PlayedAt.UTC())
	if err != nil {
		return err
	}

	_, err = DB.ExecContext(ctx, `
		DELETE FROM play_history WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM play_history WHERE guild_id = ? ORDER BY played_at DESC, id DESC LIMIT ?
		)
	`, r.GuildID.String(), r.GuildID.String(), maxHistoryPerGuild)
	return err
}

func GetPlayHistory(ctx context.Context, guildID snowflake.ID, limit int) ([]*PlayRecord, error) {
	if DB == nil {
		return nil, nil
	}
	rows, err := DB.QueryContext(ctx, `
		SELECT id, requester_id, title, url, played_at FROM play_history
		WHERE guild_id = ? ORDER BY played_at DESC, id DESC LIMIT ?
	`, guildID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*PlayRecord
	for rows.Next() {
		var r PlayRecord
		var requester string
		if err := rows.Scan(&r.ID, &requester, &r.Title, &r.URL, &r.PlayedAt); err != nil {
			return nil, err
		}
		uid, _ := strconv.ParseUint(requester, 10, 64)
		r.RequesterID = snowflake.ID(uid)
		r.GuildID = guildID
		records = append(records, &r)
	}
	return records, rows.Err()
}
