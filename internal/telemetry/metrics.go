// Package telemetry provides Prometheus metrics for the moderation bot.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	TicksTotal          *prometheus.CounterVec // by category, result
	NoticesSent         *prometheus.CounterVec // by category
	NoticeSendFailures  *prometheus.CounterVec // by category
	NoticesRetracted    *prometheus.CounterVec // by category
	RetractFailures     *prometheus.CounterVec // by category
	MessagesDeleted     prometheus.Counter
	MessagesDryRun      prometheus.Counter
	DeleteFailures      prometheus.Counter
	SendersExempted     *prometheus.CounterVec // by reason
	CommandsHandled     *prometheus.CounterVec // by command

	// Gauges
	RunningGauge prometheus.Gauge // 1=running,0=stopped
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_ticks_total", Help: "Job ticks by category and result"}, []string{"category", "result"})
		NoticesSent = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_notices_sent_total", Help: "Notice messages sent"}, []string{"category"})
		NoticeSendFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_notice_send_failures_total", Help: "Notice sends that failed"}, []string{"category"})
		NoticesRetracted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_notices_retracted_total", Help: "Notice messages retracted"}, []string{"category"})
		RetractFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_retract_failures_total", Help: "Notice retractions that failed"}, []string{"category"})
		MessagesDeleted = promauto.NewCounter(prometheus.CounterOpts{Name: "nightwatch_messages_deleted_total", Help: "Member messages deleted in quiet windows"})
		MessagesDryRun = promauto.NewCounter(prometheus.CounterOpts{Name: "nightwatch_messages_dry_run_total", Help: "Member messages that would have been deleted in test mode"})
		DeleteFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "nightwatch_delete_failures_total", Help: "Member message deletions that failed"})
		SendersExempted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_senders_exempted_total", Help: "Messages exempted from moderation by reason"}, []string{"reason"})
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nightwatch_commands_total", Help: "Chat commands handled"}, []string{"command"})
		RunningGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "nightwatch_running", Help: "Scheduler running=1 stopped=0"})
	})
}

// IncVec increments a labelled counter if metrics are initialized.
func IncVec(v *prometheus.CounterVec, labels ...string) {
	if v != nil {
		v.WithLabelValues(labels...).Inc()
	}
}

// AddVec adds n to a labelled counter if metrics are initialized.
func AddVec(v *prometheus.CounterVec, n int, labels ...string) {
	if v != nil && n > 0 {
		v.WithLabelValues(labels...).Add(float64(n))
	}
}

// Inc increments a counter if metrics are initialized.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetRunning records scheduler state.
func SetRunning(running bool) {
	if RunningGauge == nil {
		return
	}
	if running {
		RunningGauge.Set(1)
	} else {
		RunningGauge.Set(0)
	}
}
