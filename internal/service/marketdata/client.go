package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"IntraCast/internal/domain/models"
	domsvc "IntraCast/internal/domain/service"
	xhttp "IntraCast/pkg/http"
	"IntraCast/pkg/util"
)

// Client fetches intraday OHLCV bars from the market data HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	loc     *time.Location
	client  *xhttp.Client
}

// New creates a bar source. Timestamps from the API are epoch seconds UTC
// and are converted to exchange-local time in loc.
func New(baseURL, apiKey string, loc *time.Location, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		loc:     loc,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type apiBar struct {
	T int64   `json:"t"` // epoch seconds
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type apiBarsResponse struct {
	Symbol string   `json:"symbol"`
	Bars   []apiBar `json:"bars"`
}

// Fetch returns bars for the trailing lookback window, strictly ordered by
// timestamp with duplicates collapsed (last write wins). Returns
// models.ErrNoData when the API has nothing for the window.
func (c *Client) Fetch(ctx context.Context, symbol string, interval, lookback time.Duration) ([]models.Bar, error) {
	var resp apiBarsResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/bars",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {intervalParam(interval)},
			"period":   {periodParam(lookback)},
		},
		Headers: map[string]string{"X-Api-Key": c.apiKey},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}
	if len(resp.Bars) == 0 {
		return nil, fmt.Errorf("%w: symbol %s", models.ErrNoData, symbol)
	}

	// Align to bar boundaries before dedupe so an off-boundary duplicate
	// collapses onto its bar.
	type aligned struct {
		ts  time.Time
		bar apiBar
	}
	byTS := make(map[int64]aligned, len(resp.Bars))
	for _, b := range resp.Bars {
		ts := util.AlignToInterval(time.Unix(b.T, 0), interval)
		byTS[ts.Unix()] = aligned{ts: ts, bar: b}
	}
	out := make([]models.Bar, 0, len(byTS))
	for _, a := range byTS {
		b := a.bar
		out = append(out, models.Bar{
			Timestamp: a.ts.In(c.loc),
			Open:      b.O,
			High:      b.H,
			Low:       b.L,
			Close:     b.C,
			Volume:    b.V,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func intervalParam(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func periodParam(d time.Duration) string {
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

var _ domsvc.BarSource = (*Client)(nil)
