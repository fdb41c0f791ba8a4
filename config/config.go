package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	TelegramToken    string  `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminTelegramIDs []int64 `env:"ADMIN_TELEGRAM_IDS,required"`
	DatabasePath     string  `env:"DATABASE_PATH" envDefault:"./data/piwo.db"`
	TimezoneName     string  `env:"TIMEZONE" envDefault:"Europe/Amsterdam"`
	WebhookURL       string  `env:"WEBHOOK_URL" envDefault:"https://piwo.example.org"`
	ServerPort       string  `env:"SERVER_PORT" envDefault:"8080"`

	// WindowWeeks is the default planning horizon for agenda listings and
	// the calendar feed.
	WindowWeeks int `env:"WINDOW_WEEKS" envDefault:"10"`

	// SweepLookbackWeeks bounds how far back the retention sweep regenerates
	// occurrences of recurring activities.
	SweepLookbackWeeks int    `env:"SWEEP_LOOKBACK_WEEKS" envDefault:"10"`
	SweepTime          string `env:"SWEEP_TIME" envDefault:"03:30"`
	NudgeTime          string `env:"NUDGE_TIME" envDefault:"09:00"`

	// FeedToken protects the read-only ICS feed. Empty disables the feed.
	FeedToken string `env:"FEED_TOKEN"`

	CalDAVURL      string `env:"CALDAV_URL"`
	CalDAVUsername string `env:"CALDAV_USERNAME"`
	CalDAVPassword string `env:"CALDAV_PASSWORD"`
	CalDAVCalendar string `env:"CALDAV_CALENDAR"`

	Timezone *time.Location `env:"-"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	tz, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	if cfg.WindowWeeks < 1 {
		return nil, fmt.Errorf("WINDOW_WEEKS must be at least 1")
	}
	if cfg.SweepLookbackWeeks < 1 {
		return nil, fmt.Errorf("SWEEP_LOOKBACK_WEEKS must be at least 1")
	}

	return cfg, nil
}

// Window returns the default [from, until] planning window starting at t.
func (c *Config) Window(t time.Time) (time.Time, time.Time) {
	return t, t.AddDate(0, 0, 7*c.WindowWeeks)
}

// SweepLookback returns the duration the retention sweep looks back.
func (c *Config) SweepLookback() time.Duration {
	return time.Duration(c.SweepLookbackWeeks) * 7 * 24 * time.Hour
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminTelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) CalDAVConfigured() bool {
	return c.CalDAVURL != "" && c.CalDAVUsername != "" && c.CalDAVPassword != ""
}
