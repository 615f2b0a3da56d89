package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/go-playground/validator/v10"
)

// Operating modes
const (
	ModeTest       = "test"
	ModeProduction = "production"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Operating mode: test logs every message and never deletes member messages
	Mode string `validate:"oneof=test production"`

	// Timezone used for quiet windows and job schedules
	Location *time.Location

	// Moderation policy (loaded from YAML)
	Policy *PolicyConfig `validate:"required"`

	// Admin HTTP API
	API APIConfig

	// Moderation journal
	Journal JournalConfig

	// Longest message sent in one piece, in runes
	MaxMessageRunes int `validate:"min=1,max=30000"`

	// Upper bound for one job run
	TickTimeout time.Duration `validate:"gt=0"`

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string `validate:"required"`
	AppSecret string `validate:"required"`
}

// APIConfig contains admin API configuration
type APIConfig struct {
	Port int `validate:"min=1,max=65535"`
}

// JournalConfig contains journal storage configuration
type JournalConfig struct {
	DBPath string
}

// LoadFromEnv loads configuration from environment variables and the policy file
func LoadFromEnv() (*Config, error) {
	journalPath := os.Getenv("JOURNAL_DB_PATH")
	if journalPath == "" {
		homeDir, _ := os.UserHomeDir()
		journalPath = filepath.Join(homeDir, ".feishu-nightwatch", "journal.db")
	}

	mode := strings.ToLower(os.Getenv("NIGHTWATCH_MODE"))
	if mode == "" {
		mode = ModeTest
	}

	loc := time.Local
	if tz := os.Getenv("NIGHTWATCH_TIMEZONE"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, &ConfigError{Field: "NIGHTWATCH_TIMEZONE", Message: err.Error()}
		}
		loc = l
	}

	tickTimeout := 2 * time.Minute
	if val := os.Getenv("TICK_TIMEOUT"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			tickTimeout = parsed
		}
	}

	policy, err := LoadPolicyConfig(os.Getenv("NIGHTWATCH_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Mode:            mode,
		Location:        loc,
		Policy:          policy,
		API:             APIConfig{Port: envInt("API_PORT", 9876)},
		Journal:         JournalConfig{DBPath: journalPath},
		MaxMessageRunes: envInt("MAX_MESSAGE_RUNES", 4000),
		TickTimeout:     tickTimeout,
		Debug:           os.Getenv("DEBUG") == "true",
	}, nil
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

// IsProduction reports whether member messages are really deleted
func (c *Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

// ToQuietPolicy converts to the domain policy
func (c *Config) ToQuietPolicy() domain.QuietPolicy {
	p := c.Policy
	return domain.QuietPolicy{
		NightBeginHour:   p.Night.BeginHour,
		NightEndHour:     p.Night.EndHour,
		VacationWeekdays: p.Vacation.Weekdays,
		VacationDates:    p.Vacation.Dates,
		ChatID:           p.ChatID,
		NightTopics:      normalizeTopics(p.Night.Topics),
		VacationTopics:   normalizeTopics(p.Vacation.Topics),
		ExcludedUsers:    p.Users.Excluded,
		Location:         c.Location,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &ConfigError{Field: "config", Message: err.Error()}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
