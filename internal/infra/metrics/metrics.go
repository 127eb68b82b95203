// Package metrics provides the Prometheus collectors of the raid scheduler and the HTTP
// endpoint that exposes them.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification results.
const (
	ResultSent          = "sent"
	ResultDisabled      = "disabled"
	ResultFailed        = "failed"
	ResultSkippedActive = "skipped_active"
)

// Session end reasons.
const (
	EndExpired   = "expired"
	EndClosed    = "closed"
	EndCancelled = "cancelled"
)

var (
	once sync.Once

	RaidNotifications *prometheus.CounterVec
	RosterCommands    *prometheus.CounterVec
	RosterSessions    *prometheus.CounterVec

	RosterSize prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		RaidNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "raid_notifications_total",
			Help: "Raid notification fire attempts by result",
		}, []string{"result"})
		RosterCommands = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_commands_total",
			Help: "Roster commands processed by command and outcome",
		}, []string{"command", "outcome"})
		RosterSessions = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_sessions_total",
			Help: "Finished roster sessions by end reason",
		}, []string{"end"})
		RosterSize = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "roster_size",
			Help: "Members in the currently open roster",
		})
	})
}

// RecordNotification counts a fire attempt.
func RecordNotification(result string) {
	if RaidNotifications != nil {
		RaidNotifications.WithLabelValues(result).Inc()
	}
}

// RecordCommand counts a processed roster command.
func RecordCommand(command, outcome string) {
	if RosterCommands != nil {
		RosterCommands.WithLabelValues(command, outcome).Inc()
	}
}

// RecordSessionEnd counts a finished session and resets the roster gauge.
func RecordSessionEnd(end string) {
	if RosterSessions != nil {
		RosterSessions.WithLabelValues(end).Inc()
	}
	SetRosterSize(0)
}

// SetRosterSize records the size of the open roster.
func SetRosterSize(n int) {
	if RosterSize != nil {
		RosterSize.Set(float64(n))
	}
}

// NewServer serves /healthz and /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
