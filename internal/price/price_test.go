package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type stubProvider struct {
	name  string
	price float64
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(context.Context, string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.price, nil
}

// mondayMorning is inside the TWSE session.
var mondayMorning = time.Date(2024, 3, 4, 10, 0, 0, 0, taipei)

func newStubResolver(hoursOnly bool, now time.Time, intraday []Provider, endOfDay Provider) *Resolver {
	return &Resolver{
		intraday:  intraday,
		endOfDay:  endOfDay,
		hoursOnly: hoursOnly,
		now:       func() time.Time { return now },
	}
}

func TestResolve_FirstSuccessStopsChain(t *testing.T) {
	first := &stubProvider{name: "first", price: 500}
	second := &stubProvider{name: "second", price: 999}
	eod := &stubProvider{name: "eod", price: 111}

	r := newStubResolver(false, mondayMorning, []Provider{first, second}, eod)
	got, err := r.Resolve(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500 {
		t.Errorf("expected 500, got %v", got)
	}
	if second.calls != 0 || eod.calls != 0 {
		t.Errorf("later providers must not be called: second=%d eod=%d", second.calls, eod.calls)
	}
}

func TestResolve_FallsThroughFailures(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("down")}
	second := &stubProvider{name: "second", err: errors.New("rate limited")}
	eod := &stubProvider{name: "eod", price: 480}

	r := newStubResolver(false, mondayMorning, []Provider{first, second}, eod)
	got, err := r.Resolve(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 480 {
		t.Errorf("expected end-of-day fallback price 480, got %v", got)
	}
}

func TestResolve_AllFail(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("down")}
	eod := &stubProvider{name: "eod", err: errors.New("no data")}

	r := newStubResolver(false, mondayMorning, []Provider{first}, eod)
	_, err := r.Resolve(context.Background(), "2330")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_RoundsToTwoDecimals(t *testing.T) {
	r := newStubResolver(false, mondayMorning,
		[]Provider{&stubProvider{name: "p", price: 123.456}}, &stubProvider{name: "eod"})

	got, err := r.Resolve(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 123.46 {
		t.Errorf("expected 123.46, got %v", got)
	}
}

func TestResolve_OffHoursGate(t *testing.T) {
	sunday := time.Date(2024, 3, 3, 10, 0, 0, 0, taipei)
	intraday := &stubProvider{name: "intraday", price: 500}
	eod := &stubProvider{name: "eod", price: 480}

	r := newStubResolver(true, sunday, []Provider{intraday}, eod)
	got, err := r.Resolve(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 480 {
		t.Errorf("expected end-of-day price 480, got %v", got)
	}
	if intraday.calls != 0 {
		t.Errorf("intraday providers must be skipped off-hours, got %d calls", intraday.calls)
	}
}

func TestResolve_GateDisabledRunsFullChain(t *testing.T) {
	sunday := time.Date(2024, 3, 3, 10, 0, 0, 0, taipei)
	intraday := &stubProvider{name: "intraday", price: 500}

	r := newStubResolver(false, sunday, []Provider{intraday}, &stubProvider{name: "eod"})
	got, err := r.Resolve(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500 {
		t.Errorf("expected intraday price 500, got %v", got)
	}
}

func TestResolve_GateOnDuringSessionRunsFullChain(t *testing.T) {
	intraday := &stubProvider{name: "intraday", price: 500}

	r := newStubResolver(true, mondayMorning, []Provider{intraday}, &stubProvider{name: "eod"})
	if _, err := r.Resolve(context.Background(), "2330"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intraday.calls != 1 {
		t.Errorf("intraday providers must run during the session, got %d calls", intraday.calls)
	}
}

// ─── Provider parsing ────────────────────────────────────────────────────────

func TestYahooProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/2330.TW":
			w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":987.5}}],"error":null}}`))
		default:
			w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		}
	}))
	defer server.Close()

	p := newYahooProvider(".TW")
	p.baseURL = server.URL

	got, err := p.Fetch(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 987.5 {
		t.Errorf("expected 987.5, got %v", got)
	}

	if _, err := p.Fetch(context.Background(), "0000"); err == nil {
		t.Error("empty result set must be a failure, not a zero price")
	}
}

func TestTWSERealtimeProvider_FallsBackToOTC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ex_ch") {
		case "tse_6488.tw":
			w.Write([]byte(`{"msgArray":[]}`))
		case "otc_6488.tw":
			w.Write([]byte(`{"msgArray":[{"z":"3100"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := newTWSERealtimeProvider()
	p.baseURL = server.URL

	got, err := p.Fetch(context.Background(), "6488")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3100 {
		t.Errorf("expected OTC fallback price 3100, got %v", got)
	}
}

func TestTWSEExchangeProvider_SentinelIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msgArray":[{"z":"-"}]}`))
	}))
	defer server.Close()

	p := newTWSEExchangeProvider()
	p.baseURL = server.URL

	if _, err := p.Fetch(context.Background(), "2330"); err == nil {
		t.Error(`the "-" sentinel must be a failure, not a zero price`)
	}
}

func TestFinMindProvider(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("authorization")
		switch r.URL.Query().Get("stock_id") {
		case "2330":
			w.Write([]byte(`{"msg":"success","data":[{"close":495},{"close":500.5}]}`))
		default:
			w.Write([]byte(`{"msg":"no data","data":[]}`))
		}
	}))
	defer server.Close()

	p := newFinMindProvider("token-123")
	p.baseURL = server.URL

	got, err := p.Fetch(context.Background(), "2330")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500.5 {
		t.Errorf("expected last close 500.5, got %v", got)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}

	if _, err := p.Fetch(context.Background(), "0000"); err == nil {
		t.Error("non-success msg must be a failure")
	}
}
