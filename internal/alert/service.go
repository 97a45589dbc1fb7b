package alert

import (
	"context"
	"fmt"
	"time"

	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// Store is the slice of the alert store the poll loop needs.
type Store interface {
	ListAlerts() ([]types.Alert, error)
	UpdateCurrentPrice(ticker string, price *float64) error
	MarkNotified(id int64) error
}

// Resolver resolves the current price of a ticker.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) (float64, error)
}

// Notifier pushes a one-way message to the fixed recipient. Best-effort:
// callers log failures and move on.
type Notifier interface {
	Push(text string) error
}

var (
	// PollCycles and NotificationsSent are exported so main can persist
	// them across restarts alongside the other counters.
	PollCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockbot",
		Subsystem: "alert",
		Name:      "poll_cycles",
		Help:      "The total number of completed poll cycles",
	})
	NotificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockbot",
		Subsystem: "alert",
		Name:      "notifications_sent",
		Help:      "The total number of alert notifications pushed",
	})
)

func init() {
	prometheus.MustRegister(PollCycles)
	prometheus.MustRegister(NotificationsSent)
}

// Service is the background poll loop: every interval it re-resolves the
// price of each stored alert, updates it, and notifies conditions that hold,
// at most once per alert between registrations.
type Service struct {
	store    Store
	resolver Resolver
	notifier Notifier
	interval time.Duration
}

func NewService(store Store, resolver Resolver, notifier Notifier, interval time.Duration) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		interval: interval,
	}
}

// Run loops until ctx is cancelled. The sleep between cycles is
// interruptible; a cycle itself always finishes the alert it is on.
func (s *Service) Run(ctx context.Context) {
	log.Info("🚀 Alert service started.")
	for {
		s.RunCycle(ctx)
		PollCycles.Inc()

		select {
		case <-ctx.Done():
			log.Info("Alert service stopped.")
			return
		case <-time.After(s.interval):
		}
	}
}

// RunCycle processes every stored alert once. Failures are isolated per
// alert: a dead provider or store hiccup on one ticker never blocks the
// rest of the cycle.
func (s *Service) RunCycle(ctx context.Context) {
	log.Debug("🔄 Checking alerts...")

	alerts, err := s.store.ListAlerts()
	if err != nil {
		log.Errorf("❌ Failed to fetch alerts from the database: %v", err)
		return
	}

	for _, a := range alerts {
		s.checkAlert(ctx, a)
	}

	log.Debug("✅ Alert check completed.")
}

func (s *Service) checkAlert(ctx context.Context, a types.Alert) {
	var current *float64
	price, err := s.resolver.Resolve(ctx, a.Ticker)
	if err != nil {
		log.Warnf("⚠️ No price data found for ticker: %s", a.Ticker)
	} else {
		current = &price
	}

	// A failed resolution clears the stored quote rather than leaving a
	// stale one behind.
	if err := s.store.UpdateCurrentPrice(a.Ticker, current); err != nil {
		log.Errorf("❌ Failed to update current price for %s: %v", a.Ticker, err)
	}

	log.Debugf("🔍 checking %s | current=%s | condition=%s %s | notified=%v",
		a.Ticker, helpers.FormatNullablePrice(current), a.Operator.Label(),
		helpers.FormatPrice(a.TargetPrice), a.Notified)

	if a.Notified {
		return
	}
	if !Evaluate(current, a.Operator, a.TargetPrice) {
		return
	}

	message := fmt.Sprintf("📢 %s 已達到條件 %s %s！\n現價: %s",
		a.Ticker, a.Operator.Label(), helpers.FormatPrice(a.TargetPrice),
		helpers.FormatPrice(*current))
	if err := s.notifier.Push(message); err != nil {
		log.Errorf("❌ Failed to send alert notification for %s: %v", a.Ticker, err)
	} else {
		NotificationsSent.Inc()
		log.Infof("✅ Alert notification sent for %s", a.Ticker)
	}

	// The flag follows the evaluation, not the delivery: a lost push is
	// accepted, a repeated one per registration is not.
	if err := s.store.MarkNotified(a.ID); err != nil {
		log.Errorf("❌ Failed to mark %s as notified: %v", a.Ticker, err)
	}
}
