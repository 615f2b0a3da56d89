package conf

import (
	"strings"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
)

// MessagesConfig holds every text the bot posts
type MessagesConfig struct {
	NightBegin  string `yaml:"night_begin"`
	NightEnd    string `yaml:"night_end"`
	VacationDay string `yaml:"vacation_day"`

	Alive            string `yaml:"alive"`
	Help             string `yaml:"help"`
	Version          string `yaml:"version"` // {{version}} is replaced
	NotAuthorized    string `yaml:"not_authorized"`
	Started          string `yaml:"started"`
	AlreadyStarted   string `yaml:"already_started"`
	Stopped          string `yaml:"stopped"`
	AlreadyStopped   string `yaml:"already_stopped"`
	StatusRunning    string `yaml:"status_running"`
	StatusStopped    string `yaml:"status_stopped"`
	NightActive      string `yaml:"night_active"`
	NightInactive    string `yaml:"night_inactive"`
	VacationActive   string `yaml:"vacation_active"`
	VacationInactive string `yaml:"vacation_inactive"`
	NoticeFailed     string `yaml:"notice_failed"` // {{error}} is replaced
}

// Notices extracts the notice texts used by the notice usecase
func (m *MessagesConfig) Notices() domain.NoticeTexts {
	return domain.NoticeTexts{
		NightBegin:  m.NightBegin,
		NightEnd:    m.NightEnd,
		VacationDay: m.VacationDay,
	}
}

// FormatVersion renders the version reply
func (m *MessagesConfig) FormatVersion(version string) string {
	return strings.ReplaceAll(m.Version, "{{version}}", version)
}

// FormatNoticeFailed renders the reply for a failed test notice
func (m *MessagesConfig) FormatNoticeFailed(err error) string {
	return strings.ReplaceAll(m.NoticeFailed, "{{error}}", err.Error())
}

// fillDefaults fills in default values for empty fields
func (m *MessagesConfig) fillDefaults() {
	d := DefaultMessages()
	fields := []struct {
		dst *string
		def string
	}{
		{&m.NightBegin, d.NightBegin},
		{&m.NightEnd, d.NightEnd},
		{&m.VacationDay, d.VacationDay},
		{&m.Alive, d.Alive},
		{&m.Help, d.Help},
		{&m.Version, d.Version},
		{&m.NotAuthorized, d.NotAuthorized},
		{&m.Started, d.Started},
		{&m.AlreadyStarted, d.AlreadyStarted},
		{&m.Stopped, d.Stopped},
		{&m.AlreadyStopped, d.AlreadyStopped},
		{&m.StatusRunning, d.StatusRunning},
		{&m.StatusStopped, d.StatusStopped},
		{&m.NightActive, d.NightActive},
		{&m.NightInactive, d.NightInactive},
		{&m.VacationActive, d.VacationActive},
		{&m.VacationInactive, d.VacationInactive},
		{&m.NoticeFailed, d.NoticeFailed},
	}
	for _, f := range fields {
		if strings.TrimSpace(*f.dst) == "" {
			*f.dst = f.def
		}
	}
}

// DefaultMessages returns the built-in texts
func DefaultMessages() MessagesConfig {
	return MessagesConfig{
		NightBegin: `🌒 NIGHT MODE

Hello everyone,
Night mode has started. You cannot send messages in this topic until morning.

Thank you,
The team`,
		NightEnd: `🌒 NIGHT MODE

Hello everyone,
Night mode is over. You can send messages in this topic again.

Thank you,
The team`,
		VacationDay: `📝 TOPIC CLOSED

Hello everyone,
we would like to inform you that this topic is closed today.

Thank you,
The team`,
		Alive: "🤖 Hello! The bot is alive.",
		Help: `🤖 Hello! Commands for night/vacation control:

/nvbot_help: show this message
/nvbot_alive: check if the bot is alive
/nvbot_start: start the bot
/nvbot_stop: stop the bot
/nvbot_status: show if the bot is started
/nvbot_night_status: show if night mode is active
/nvbot_vacation_status: show if vacation mode is active
/nvbot_test_night: post the night notice in the night topics
/nvbot_test_vacation: post the vacation notice in the vacation topics
/nvbot_version: show the bot version`,
		Version:          "🤖 Bot version: {{version}}",
		NotAuthorized:    "❌ You are not authorized to use the bot.",
		Started:          "✅ Bot started",
		AlreadyStarted:   "❌ Bot already started",
		Stopped:          "✅ Bot stopped",
		AlreadyStopped:   "❌ Bot already stopped",
		StatusRunning:    "🟢 Bot running",
		StatusStopped:    "🔴 Bot stopped",
		NightActive:      "🟢 Night mode active",
		NightInactive:    "🔴 Night mode inactive",
		VacationActive:   "🟢 Vacation mode active",
		VacationInactive: "🔴 Vacation mode inactive",
		NoticeFailed:     "❌ Failed to post notice: {{error}}",
	}
}
