package config

import (
	"fmt"
	"strings"
	"time"

	"clan_raids_bot/internal/domain/raid"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken     string        `envconfig:"TELEGRAM_TOKEN" required:"true"`
	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	AdminTelegramID   int64         `envconfig:"ADMIN_TELEGRAM_ID" required:"true"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	Environment       string        `envconfig:"ENVIRONMENT" default:"development"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR" default:":8080"` // healthz and metrics
	ClanName          string        `envconfig:"CLAN_NAME"`
	BotRepoURL        string        `envconfig:"BOT_REPO_URL"`
	SchedulerTick     time.Duration `envconfig:"SCHEDULER_TICK" default:"1s"`
	CronSpecTeamSweep string        `envconfig:"CRON_SPEC_TEAM_SWEEP" default:"*/15 * * * *"`
	TeamStaleAfter    time.Duration `envconfig:"TEAM_STALE_AFTER" default:"3h"`

	Raids RaidsConfig `envconfig:"RAIDS"`
}

// RaidsConfig is read from the RAIDS_* variables.
type RaidsConfig struct {
	ChatID          int64         `envconfig:"CHAT_ID" required:"true"`        // Announcement and roster display
	PublicChatID    int64         `envconfig:"PUBLIC_CHAT_ID" required:"true"` // Where `in`/`out` are read
	StartDateRaw    string        `envconfig:"START_DATE" required:"true"`     // YYYY-MM-DD
	FireTimeRaw     string        `envconfig:"FIRE_TIME" default:"23:00:00"`
	CadenceDays     int           `envconfig:"CADENCE_DAYS" default:"2"`
	TimezoneName    string        `envconfig:"TIMEZONE" default:"UTC"`
	Force           bool          `envconfig:"FORCE" default:"false"` // Fire on every tick, for testing
	Role            string        `envconfig:"ROLE" default:"raids"`
	Capacity        int           `envconfig:"CAPACITY" default:"10"`
	SessionDuration time.Duration `envconfig:"SESSION_DURATION" default:"60m"`
	MessageTTL      time.Duration `envconfig:"MESSAGE_TTL" default:"90m"`
	PollWait        time.Duration `envconfig:"POLL_WAIT" default:"5s"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL"` // Defaults to POLL_WAIT
	ChatTitle       string        `envconfig:"CHAT_TITLE"`
	ChatLink        string        `envconfig:"CHAT_LINK"`
	PublicChatTitle string        `envconfig:"PUBLIC_CHAT_TITLE"`
	PublicChatLink  string        `envconfig:"PUBLIC_CHAT_LINK"`

	StartDate  time.Time      `ignored:"true"`
	FireHour   int            `ignored:"true"`
	FireMinute int            `ignored:"true"`
	Location   *time.Location `ignored:"true"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// envconfig accepts a variable that is set but empty.
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)

	if err := cfg.Raids.resolve(); err != nil {
		return nil, err
	}
	if cfg.SchedulerTick <= 0 {
		return nil, fmt.Errorf("SCHEDULER_TICK must be positive, got %s", cfg.SchedulerTick)
	}
	if cfg.TeamStaleAfter <= 0 {
		return nil, fmt.Errorf("TEAM_STALE_AFTER must be positive, got %s", cfg.TeamStaleAfter)
	}
	return cfg, nil
}

func (r *RaidsConfig) resolve() error {
	loc, err := time.LoadLocation(r.TimezoneName)
	if err != nil {
		return fmt.Errorf("invalid RAIDS_TIMEZONE: %w", err)
	}
	r.Location = loc

	r.StartDate, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(r.StartDateRaw), loc)
	if err != nil {
		return fmt.Errorf("invalid RAIDS_START_DATE: %w", err)
	}

	r.FireHour, r.FireMinute, err = raid.ParseFireTime(r.FireTimeRaw)
	if err != nil {
		return fmt.Errorf("invalid RAIDS_FIRE_TIME: %w", err)
	}

	switch {
	case r.CadenceDays < 1:
		return fmt.Errorf("RAIDS_CADENCE_DAYS must be at least 1, got %d", r.CadenceDays)
	case r.Capacity < 1:
		return fmt.Errorf("RAIDS_CAPACITY must be at least 1, got %d", r.Capacity)
	case r.SessionDuration <= 0:
		return fmt.Errorf("RAIDS_SESSION_DURATION must be positive, got %s", r.SessionDuration)
	case r.PollWait <= 0:
		return fmt.Errorf("RAIDS_POLL_WAIT must be positive, got %s", r.PollWait)
	case r.RefreshInterval < 0:
		return fmt.Errorf("RAIDS_REFRESH_INTERVAL must not be negative, got %s", r.RefreshInterval)
	case strings.TrimSpace(r.Role) == "":
		return fmt.Errorf("RAIDS_ROLE must not be empty")
	}
	if r.RefreshInterval == 0 {
		r.RefreshInterval = r.PollWait
	}
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	return nil
}

// Cycle returns the cycle clock configuration.
func (r RaidsConfig) Cycle() raid.CycleConfig {
	return raid.CycleConfig{
		StartDate:   r.StartDate,
		FireHour:    r.FireHour,
		FireMinute:  r.FireMinute,
		CadenceDays: r.CadenceDays,
		Location:    r.Location,
		Force:       r.Force,
	}
}
