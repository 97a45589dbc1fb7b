package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// noQuoteSentinel is what the TWSE quote endpoints return in the trade-price
// field when no trade happened yet. It means "no data", never zero.
const noQuoteSentinel = "-"

// ─── Yahoo Finance (intraday, .TW and .TWO listings) ─────────────────────────

type yahooProvider struct {
	suffix  string
	baseURL string
	client  *http.Client
}

func newYahooProvider(suffix string) *yahooProvider {
	return &yahooProvider{
		suffix:  suffix,
		baseURL: "https://query1.finance.yahoo.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *yahooProvider) Name() string {
	return "yahoo" + p.suffix
}

func (p *yahooProvider) Fetch(ctx context.Context, ticker string) (float64, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s%s?range=1d&interval=1d", p.baseURL, ticker, p.suffix)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "request to %s failed", p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("%s returned status %d", p.Name(), resp.StatusCode)
	}

	var payload struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
			Error *struct {
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(err, "failed to parse yahoo response")
	}

	if payload.Chart.Error != nil {
		return 0, errors.Errorf("yahoo error: %s", payload.Chart.Error.Description)
	}
	// An empty result set means the listing does not exist on this suffix.
	if len(payload.Chart.Result) == 0 || payload.Chart.Result[0].Meta.RegularMarketPrice == 0 {
		return 0, errors.Errorf("empty result set for %s%s", ticker, p.suffix)
	}

	return payload.Chart.Result[0].Meta.RegularMarketPrice, nil
}

// ─── TWSE MIS realtime quote ─────────────────────────────────────────────────

type misResponse struct {
	MsgArray []struct {
		LatestTradePrice string `json:"z"`
	} `json:"msgArray"`
}

func (r misResponse) latestPrice() (float64, error) {
	if len(r.MsgArray) == 0 {
		return 0, errors.New("empty msgArray")
	}
	raw := r.MsgArray[0].LatestTradePrice
	if raw == "" || raw == noQuoteSentinel {
		return 0, errors.New("no quote available")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid trade price %q", raw)
	}
	return price, nil
}

// twseRealtimeProvider mirrors the realtime quote lookup: it tries the main
// board channel first and falls back to the OTC channel for the same ticker.
type twseRealtimeProvider struct {
	baseURL string
	client  *http.Client
}

func newTWSERealtimeProvider() *twseRealtimeProvider {
	return &twseRealtimeProvider{
		baseURL: "https://mis.twse.com.tw",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *twseRealtimeProvider) Name() string {
	return "twse-realtime"
}

func (p *twseRealtimeProvider) Fetch(ctx context.Context, ticker string) (float64, error) {
	var lastErr error
	for _, exchange := range []string{"tse", "otc"} {
		price, err := fetchMISQuote(ctx, p.client, p.baseURL, exchange, ticker)
		if err == nil {
			return price, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// twseExchangeProvider hits the same low-level endpoint on the main board
// only, with a tighter timeout. Certificate verification stays on; the
// default transport is used.
type twseExchangeProvider struct {
	baseURL string
	client  *http.Client
}

func newTWSEExchangeProvider() *twseExchangeProvider {
	return &twseExchangeProvider{
		baseURL: "https://mis.twse.com.tw",
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *twseExchangeProvider) Name() string {
	return "twse-exchange"
}

func (p *twseExchangeProvider) Fetch(ctx context.Context, ticker string) (float64, error) {
	return fetchMISQuote(ctx, p.client, p.baseURL, "tse", ticker)
}

func fetchMISQuote(ctx context.Context, client *http.Client, baseURL, exchange, ticker string) (float64, error) {
	url := fmt.Sprintf("%s/stock/api/getStockInfo.jsp?ex_ch=%s_%s.tw&json=1&delay=0", baseURL, exchange, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request to twse failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("twse returned status %d", resp.StatusCode)
	}

	var payload misResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(err, "failed to parse twse response")
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("twse %s_%s response: %s", exchange, ticker, spew.Sdump(payload))
	}

	return payload.latestPrice()
}

// ─── FinMind end-of-day data (last resort) ───────────────────────────────────

type finmindProvider struct {
	token   string
	baseURL string
	client  *http.Client
}

func newFinMindProvider(token string) *finmindProvider {
	return &finmindProvider{
		token:   token,
		baseURL: "https://api.finmindtrade.com",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *finmindProvider) Name() string {
	return "finmind"
}

func (p *finmindProvider) Fetch(ctx context.Context, ticker string) (float64, error) {
	url := fmt.Sprintf("%s/api/v4/data?dataset=TaiwanStockPrice&stock_id=%s&date=%s",
		p.baseURL, ticker, time.Now().Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request to finmind failed")
	}
	defer resp.Body.Close()

	var payload struct {
		Msg  string `json:"msg"`
		Data []struct {
			Close float64 `json:"close"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(err, "failed to parse finmind response")
	}

	if payload.Msg != "success" || len(payload.Data) == 0 {
		return 0, errors.Errorf("finmind returned no data, msg=%s", payload.Msg)
	}

	return payload.Data[len(payload.Data)-1].Close, nil
}
