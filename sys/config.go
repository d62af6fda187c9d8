package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultIdleTimeout   = 180 * time.Second
	DefaultSkipThreshold = 1
	DefaultVolumePercent = 50
	MaxVolumePercent     = 200
	DefaultResolveRate   = 2.0
	DefaultLoungeURL     = "http://streaming.radionomy.com/JamendoLounge"
)

type Config struct {
	Token             string
	GuildID           string
	DatabasePath      string
	Silent            bool
	IdleTimeout       time.Duration
	SkipVoteThreshold int
	DefaultVolume     int
	LoungeURL         string
	MetricsAddr       string
	ResolveRate       float64
}

var GlobalConfig *Config

// LoadConfig reads the .env file (if any) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := configFromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	GlobalConfig = cfg
	return cfg, nil
}

func configFromEnv(getenv func(string) string) (*Config, error) {
	dbPath := getenv("DATABASE_PATH")
	if dbPath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		dbPath = filepath.Join(folder, GetProjectName()+".db")
	}

	silent, _ := strconv.ParseBool(getenv("SILENT"))

	idle := DefaultIdleTimeout
	if raw := getenv("IDLE_TIMEOUT"); raw != "" {
		d, err := parseSeconds(raw)
		if err != nil {
			return nil, fmt.Errorf(MsgConfigInvalidIdle, raw, err)
		}
		idle = d
	}

	threshold := DefaultSkipThreshold
	if raw := getenv("SKIP_VOTE_THRESHOLD"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid SKIP_VOTE_THRESHOLD %q: %w", raw, err)
		}
		threshold = n
	}

	volume := DefaultVolumePercent
	if raw := getenv("DEFAULT_VOLUME"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_VOLUME %q: %w", raw, err)
		}
		volume = ClampVolume(n)
	}

	resolveRate := DefaultResolveRate
	if raw := getenv("RESOLVE_RATE"); raw != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid RESOLVE_RATE %q", raw)
		}
		resolveRate = f
	}

	lounge := getenv("LOUNGE_URL")
	if lounge == "" {
		lounge = DefaultLoungeURL
	}

	return &Config{
		Token:             getenv("DISCORD_TOKEN"),
		GuildID:           strings.TrimSpace(getenv("GUILD_ID")),
		DatabasePath:      dbPath,
		Silent:            silent,
		IdleTimeout:       idle,
		SkipVoteThreshold: threshold,
		DefaultVolume:     volume,
		LoungeURL:         lounge,
		MetricsAddr:       getenv("METRICS_ADDR"),
		ResolveRate:       resolveRate,
	}, nil
}

// parseSeconds accepts either a bare number of seconds or a Go duration.
func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf(MsgConfigInvalidGuildID)
	}
	if c.SkipVoteThreshold < 1 {
		return fmt.Errorf(MsgConfigInvalidThreshold, c.SkipVoteThreshold)
	}
	return nil
}

// ClampVolume bounds a percentage to the accepted 0..200 range.
func ClampVolume(percent int) int {
	return max(0, min(percent, MaxVolumePercent))
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "bot"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") || strings.HasSuffix(projectName, ".test") {
			if modData, err := os.ReadFile("go.mod"); err == nil {
				lines := strings.Split(string(modData), "\n")
				if len(lines) > 0 && strings.HasPrefix(lines[0], "module ") {
					parts := strings.Split(lines[0], "/")
					projectName = strings.TrimSpace(parts[len(parts)-1])
				}
			}
		}
	}
	return projectName
}
