package service

import (
	"context"
	"slices"
	"strings"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
	"github.com/DevRickLin/feishu-nightwatch/internal/conf"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/telemetry"
)

// Chat commands
const (
	CmdHelp           = "/nvbot_help"
	CmdAlive          = "/nvbot_alive"
	CmdStart          = "/nvbot_start"
	CmdStop           = "/nvbot_stop"
	CmdStatus         = "/nvbot_status"
	CmdNightStatus    = "/nvbot_night_status"
	CmdVacationStatus = "/nvbot_vacation_status"
	CmdTestNight      = "/nvbot_test_night"
	CmdTestVacation   = "/nvbot_test_vacation"
	CmdVersion        = "/nvbot_version"
)

// commandHandler returns the reply text, empty for no reply
type commandHandler func(ctx context.Context, msg *domain.Message) string

// CommandService answers the /nvbot_* chat commands
type CommandService struct {
	svc        *NightwatchService
	messages   repo.MessageRepo
	texts      conf.MessagesConfig
	authorized []string
	version    string
	handlers   map[string]commandHandler
	log        *logger.Logger
}

// NewCommandService creates a new command service
func NewCommandService(
	svc *NightwatchService,
	messages repo.MessageRepo,
	texts conf.MessagesConfig,
	authorized []string,
	version string,
) *CommandService {
	c := &CommandService{
		svc:        svc,
		messages:   messages,
		texts:      texts,
		authorized: authorized,
		version:    version,
		log:        logger.Named("commands"),
	}
	c.handlers = map[string]commandHandler{
		CmdHelp:           c.reply(texts.Help),
		CmdAlive:          c.reply(texts.Alive),
		CmdVersion:        c.reply(texts.FormatVersion(version)),
		CmdStart:          c.start,
		CmdStop:           c.stop,
		CmdStatus:         c.status,
		CmdNightStatus:    c.nightStatus,
		CmdVacationStatus: c.vacationStatus,
		CmdTestNight:      c.testNight,
		CmdTestVacation:   c.testVacation,
	}
	return c
}

// ParseCommand extracts the command name from message text.
// Leading mentions are skipped and a "@bot" suffix is dropped.
func ParseCommand(text string) (string, bool) {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "@") {
			continue
		}
		if !strings.HasPrefix(field, "/") {
			return "", false
		}
		name, _, _ := strings.Cut(field, "@")
		return strings.ToLower(name), true
	}
	return "", false
}

// IsCommand reports whether msg carries a known command
func (c *CommandService) IsCommand(msg *domain.Message) bool {
	name, ok := ParseCommand(msg.Content)
	if !ok {
		return false
	}
	_, known := c.handlers[name]
	return known
}

// Handle runs the command in msg and replies in the caller's chat and topic.
// It returns false when msg is not a known command.
func (c *CommandService) Handle(ctx context.Context, msg *domain.Message) bool {
	name, ok := ParseCommand(msg.Content)
	if !ok {
		return false
	}
	handler, known := c.handlers[name]
	if !known {
		return false
	}

	log := c.log.With().Str("command", name).Str("chat_id", msg.ChatID).Str("msg_id", msg.ID).Logger()
	if !c.isAuthorized(msg.Sender) {
		log.Warn().Msg("unauthorized command")
		c.send(ctx, msg, c.texts.NotAuthorized)
		return true
	}

	telemetry.IncVec(telemetry.CommandsHandled, name)
	log.Info().Msg("command received")
	if text := handler(ctx, msg); text != "" {
		c.send(ctx, msg, text)
	}
	return true
}

func (c *CommandService) isAuthorized(sender *domain.Sender) bool {
	if sender == nil {
		return false
	}
	for _, id := range sender.IDs() {
		if slices.Contains(c.authorized, id) {
			return true
		}
	}
	return false
}

func (c *CommandService) send(ctx context.Context, msg *domain.Message, text string) {
	if _, err := c.messages.Send(ctx, msg.ChatID, msg.TopicID, text); err != nil {
		c.log.Error().Err(err).Str("chat_id", msg.ChatID).Msg("failed to send command reply")
	}
}

func (c *CommandService) reply(text string) commandHandler {
	return func(context.Context, *domain.Message) string { return text }
}

func (c *CommandService) start(ctx context.Context, msg *domain.Message) string {
	status, err := c.svc.Start()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to start jobs")
		return c.texts.FormatNoticeFailed(err)
	}
	if status == domain.StatusAlreadyStarted {
		return c.texts.AlreadyStarted
	}
	return c.texts.Started
}

func (c *CommandService) stop(ctx context.Context, msg *domain.Message) string {
	if c.svc.Stop() == domain.StatusAlreadyStopped {
		return c.texts.AlreadyStopped
	}
	return c.texts.Stopped
}

func (c *CommandService) status(ctx context.Context, msg *domain.Message) string {
	if c.svc.IsRunning() {
		return c.texts.StatusRunning
	}
	return c.texts.StatusStopped
}

func (c *CommandService) nightStatus(ctx context.Context, msg *domain.Message) string {
	if c.svc.NightStatus() {
		return c.texts.NightActive
	}
	return c.texts.NightInactive
}

func (c *CommandService) vacationStatus(ctx context.Context, msg *domain.Message) string {
	if c.svc.VacationStatus() {
		return c.texts.VacationActive
	}
	return c.texts.VacationInactive
}

func (c *CommandService) testNight(ctx context.Context, msg *domain.Message) string {
	if err := c.svc.TestNight(ctx); err != nil {
		return c.texts.FormatNoticeFailed(err)
	}
	return ""
}

func (c *CommandService) testVacation(ctx context.Context, msg *domain.Message) string {
	if err := c.svc.TestVacation(ctx); err != nil {
		return c.texts.FormatNoticeFailed(err)
	}
	return ""
}
