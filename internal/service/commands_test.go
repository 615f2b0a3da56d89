package service

import (
	"context"
	"slices"
	"testing"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/conf"
)

func newCommandFixture(f *fixture) *CommandService {
	return NewCommandService(f.svc, f.messages, conf.DefaultMessages(), []string{"ou_owner", "u_ops"}, "1.2.3")
}

func commandMessage(text string, sender *domain.Sender) *domain.Message {
	return &domain.Message{
		ID:      "om_cmd",
		ChatID:  "oc_admin",
		TopicID: "om_thread",
		Content: text,
		Sender:  sender,
	}
}

var owner = &domain.Sender{OpenID: "ou_owner", Type: domain.SenderTypeUser}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"/nvbot_status", "/nvbot_status", true},
		{"@_user_1 /nvbot_start", "/nvbot_start", true},
		{"/NVBOT_Help@nightwatch extra", "/nvbot_help", true},
		{"hello /nvbot_stop", "", false},
		{"", "", false},
		{"@_user_1", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCommand(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCommand(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCommandService_Replies(t *testing.T) {
	texts := conf.DefaultMessages()
	tests := []struct {
		name string
		cmds []string
		want string // last reply
	}{
		{"help", []string{CmdHelp}, texts.Help},
		{"alive", []string{CmdAlive}, texts.Alive},
		{"version", []string{CmdVersion}, texts.FormatVersion("1.2.3")},
		{"start", []string{CmdStart}, texts.Started},
		{"start twice", []string{CmdStart, CmdStart}, texts.AlreadyStarted},
		{"stop stopped", []string{CmdStop}, texts.AlreadyStopped},
		{"stop started", []string{CmdStart, CmdStop}, texts.Stopped},
		{"status stopped", []string{CmdStatus}, texts.StatusStopped},
		{"status running", []string{CmdStart, CmdStatus}, texts.StatusRunning},
		{"night status", []string{CmdNightStatus}, texts.NightActive},
		{"vacation status", []string{CmdVacationStatus}, texts.VacationInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(weekdayAt(23), false)
			c := newCommandFixture(f)
			for _, cmd := range tt.cmds {
				if !c.Handle(context.Background(), commandMessage(cmd, owner)) {
					t.Fatalf("Expected %s handled", cmd)
				}
			}

			sent := f.messages.sent
			if len(sent) != len(tt.cmds) {
				t.Fatalf("Expected %d replies, got %d", len(tt.cmds), len(sent))
			}
			last := sent[len(sent)-1]
			if last.Text != tt.want {
				t.Errorf("Expected reply %q, got %q", tt.want, last.Text)
			}
			if last.ChatID != "oc_admin" || last.TopicID != "om_thread" {
				t.Errorf("Reply went to %s/%s", last.ChatID, last.TopicID)
			}
		})
	}
}

func TestCommandService_TestNotices(t *testing.T) {
	f := newFixture(weekdayAt(12), false)
	c := newCommandFixture(f)

	c.Handle(context.Background(), commandMessage(CmdTestNight, owner))
	c.Handle(context.Background(), commandMessage(CmdTestVacation, owner))

	want := []string{testTexts.NightEnd, testTexts.VacationDay}
	if got := f.messages.texts(); !slices.Equal(got, want) {
		t.Errorf("Expected only the notices, got %v", got)
	}
	if f.messages.sent[0].TopicID != "om_night" || f.messages.sent[1].TopicID != "om_vacation" {
		t.Errorf("Notices posted to wrong topics: %+v", f.messages.sent)
	}
}

func TestCommandService_Unauthorized(t *testing.T) {
	senders := []*domain.Sender{
		nil,
		{OpenID: "ou_stranger", Type: domain.SenderTypeUser},
	}
	for _, sender := range senders {
		f := newFixture(weekdayAt(12), false)
		c := newCommandFixture(f)

		if !c.Handle(context.Background(), commandMessage(CmdStart, sender)) {
			t.Fatal("Expected command handled")
		}
		if f.svc.IsRunning() {
			t.Error("Unauthorized start must not start the jobs")
		}
		if got := f.messages.texts(); !slices.Equal(got, []string{conf.DefaultMessages().NotAuthorized}) {
			t.Errorf("Expected not authorized reply, got %v", got)
		}
	}
}

func TestCommandService_AuthorizedByUserID(t *testing.T) {
	f := newFixture(weekdayAt(12), false)
	c := newCommandFixture(f)

	c.Handle(context.Background(), commandMessage(CmdStart, &domain.Sender{OpenID: "ou_x", UserID: "u_ops"}))
	if !f.svc.IsRunning() {
		t.Error("Expected user_id match to authorize")
	}
}

func TestCommandService_NotCommands(t *testing.T) {
	f := newFixture(weekdayAt(12), false)
	c := newCommandFixture(f)

	for _, text := range []string{"good night everyone", "/unknown_cmd"} {
		msg := commandMessage(text, owner)
		if c.IsCommand(msg) || c.Handle(context.Background(), msg) {
			t.Errorf("Expected %q not handled", text)
		}
	}
	if len(f.messages.sent) != 0 {
		t.Errorf("Expected no replies, got %v", f.messages.sent)
	}
}
