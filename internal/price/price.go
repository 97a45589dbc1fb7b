package price

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned only when every provider in the chain failed.
var ErrNotFound = errors.New("price not found")

// Provider fetches the current price of one ticker from a single source.
// Each implementation carries its own timeout; a slow source must not stall
// the rest of the chain.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ticker string) (float64, error)
}

var resolutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stockbot",
		Subsystem: "price",
		Name:      "resolutions_total",
		Help:      "Price resolution attempts per provider and outcome",
	},
	[]string{"provider", "status"},
)

func init() {
	prometheus.MustRegister(resolutions)
}

// Resolver resolves prices by trying providers in priority order and
// stopping at the first success. Provider failures are logged and absorbed.
type Resolver struct {
	intraday  []Provider
	endOfDay  Provider
	hoursOnly bool
	now       func() time.Time
}

// NewResolver builds the default chain: Yahoo .TW, Yahoo .TWO, the TWSE
// realtime quote, the low-level TWSE endpoint, then FinMind end-of-day data.
// With marketHoursOnly set, off-hours resolution skips the intraday sources
// and goes straight to end-of-day.
func NewResolver(finmindToken string, marketHoursOnly bool) *Resolver {
	return &Resolver{
		intraday: []Provider{
			newYahooProvider(".TW"),
			newYahooProvider(".TWO"),
			newTWSERealtimeProvider(),
			newTWSEExchangeProvider(),
		},
		endOfDay:  newFinMindProvider(finmindToken),
		hoursOnly: marketHoursOnly,
		now:       time.Now,
	}
}

// Resolve returns the current price for a ticker, rounded to 2 decimal
// places, or ErrNotFound when the whole chain fails.
func (r *Resolver) Resolve(ctx context.Context, ticker string) (float64, error) {
	for _, p := range r.chain() {
		price, err := p.Fetch(ctx, ticker)
		if err != nil {
			resolutions.WithLabelValues(p.Name(), "error").Inc()
			log.Debugf("❌ %s failed for %s: %v", p.Name(), ticker, err)
			continue
		}

		resolutions.WithLabelValues(p.Name(), "ok").Inc()
		rounded := math.Round(price*100) / 100
		log.Debugf("✅ %s resolved %s: %.2f", p.Name(), ticker, rounded)
		return rounded, nil
	}

	log.Warnf("⚠️ all providers failed for %s", ticker)
	return 0, ErrNotFound
}

func (r *Resolver) chain() []Provider {
	if r.hoursOnly && !isTradingHours(r.now()) {
		return []Provider{r.endOfDay}
	}
	providers := make([]Provider, 0, len(r.intraday)+1)
	providers = append(providers, r.intraday...)
	return append(providers, r.endOfDay)
}
