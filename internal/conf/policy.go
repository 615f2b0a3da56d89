package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"gopkg.in/yaml.v3"
)

// PolicyConfig is the moderation policy loaded from YAML
type PolicyConfig struct {
	ChatID   string         `yaml:"chat_id" validate:"required"`
	Night    NightConfig    `yaml:"night"`
	Vacation VacationConfig `yaml:"vacation"`
	Users    UsersConfig    `yaml:"users"`
	Messages MessagesConfig `yaml:"messages"`
}

// NightConfig contains the nightly quiet window
type NightConfig struct {
	BeginHour int      `yaml:"begin_hour" validate:"min=0,max=23"`
	EndHour   int      `yaml:"end_hour" validate:"min=0,max=23"`
	Topics    []string `yaml:"topics"`
}

// VacationConfig contains the vacation days
type VacationConfig struct {
	Weekdays []int         `yaml:"weekdays" validate:"dive,min=0,max=6"`                              // 0=Monday ... 6=Sunday
	Dates    map[int][]int `yaml:"dates" validate:"dive,keys,min=1,max=12,endkeys,dive,min=1,max=31"` // month -> days
	Topics   []string      `yaml:"topics"`
}

// UsersConfig contains user lists, matched against open_id, user_id or union_id
type UsersConfig struct {
	Authorized []string `yaml:"authorized"` // May run commands
	Excluded   []string `yaml:"excluded"`   // Never moderated
}

// LoadPolicyConfig loads the policy from YAML, trying default locations when configPath is empty
func LoadPolicyConfig(configPath string) (*PolicyConfig, error) {
	log := logger.Named("config")

	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/nightwatch.yaml",
			"/etc/feishu-nightwatch/nightwatch.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "nightwatch.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = b, p
			break
		}
		if configPath != "" {
			return nil, fmt.Errorf("read policy %s: %w", configPath, err)
		}
	}

	config := PolicyConfig{
		Night: NightConfig{BeginHour: 22, EndHour: 8},
	}
	if data == nil {
		log.Warn().Msg("no nightwatch.yaml found, using defaults")
	} else {
		log.Info().Str("path", loadedPath).Msg("loading policy")
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
		}
	}

	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in defaults for sections left out of the file
func (c *PolicyConfig) fillDefaults() {
	if c.Vacation.Weekdays == nil {
		c.Vacation.Weekdays = []int{6}
	}
	if c.Vacation.Dates == nil {
		c.Vacation.Dates = map[int][]int{
			1:  {1, 6},
			5:  {1},
			8:  {15},
			11: {1},
			12: {8, 25, 26},
		}
	}
	c.Messages.fillDefaults()
}

// NormalizeTopic maps the "no topic" spellings to domain.TopicNone
func NormalizeTopic(topic string) string {
	switch strings.ToLower(strings.TrimSpace(topic)) {
	case "", "0", "none", "null":
		return domain.TopicNone
	}
	return strings.TrimSpace(topic)
}

func normalizeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, NormalizeTopic(t))
	}
	return out
}
