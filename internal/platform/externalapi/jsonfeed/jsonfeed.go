// Package jsonfeed reads end-of-day history from loosely structured JSON feeds,
// such as the PSX data portal, by locating fields with JSONPath expressions.
package jsonfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
)

// Config describes where the feed lives and how to find each column in its payload.
// URLTemplate may contain {ticker}. TimesPath and ClosesPath are required; the others are optional.
type Config struct {
	URLTemplate string        `yaml:"url_template"`
	TimesPath   string        `yaml:"times_path"`
	ClosesPath  string        `yaml:"closes_path"`
	VolumesPath string        `yaml:"volumes_path"`
	OpensPath   string        `yaml:"opens_path"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultConfig targets the PSX data portal end-of-day endpoint, whose rows are [epoch, close, volume, open].
func DefaultConfig() Config {
	return Config{
		URLTemplate: "https://dps.psx.com.pk/timeseries/eod/{ticker}",
		TimesPath:   "$.data[*][0]",
		ClosesPath:  "$.data[*][1]",
		VolumesPath: "$.data[*][2]",
		OpensPath:   "$.data[*][3]",
		Timeout:     10 * time.Second,
	}
}

// Feed implements usecase.MarketRepository over a JSON feed.
type Feed struct {
	cfg    Config
	client *http.Client
}

var _ usecase.MarketRepository = (*Feed)(nil)

// NewFeed creates a Feed.
func NewFeed(cfg Config, client *http.Client) *Feed {
	return &Feed{cfg: cfg, client: client}
}

// GetTimeSeries fetches the feed for symbol and returns at most outputsize candles, newest first.
// The feed only carries daily bars, so interval is recorded but not sent.
func (f *Feed) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	u := strings.ReplaceAll(f.cfg.URLTemplate, "{ticker}", domain.Ticker(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: feed %s", domain.ErrSymbolNotFound, symbol)
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("jsonfeed http %d", res.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	times, err := column(f.cfg.TimesPath, doc)
	if err != nil {
		return nil, err
	}
	closes, err := column(f.cfg.ClosesPath, doc)
	if err != nil {
		return nil, err
	}
	if len(times) != len(closes) {
		return nil, fmt.Errorf("feed column mismatch: %d times, %d closes", len(times), len(closes))
	}
	volumes := optionalColumn(f.cfg.VolumesPath, doc, len(times))
	opens := optionalColumn(f.cfg.OpensPath, doc, len(times))

	sym := domain.NormalizeSymbol(symbol)
	out := make([]entity.Candle, 0, len(times))
	for i := range times {
		tm, err := parseTime(times[i])
		if err != nil {
			return nil, fmt.Errorf("parse time %v: %w", times[i], err)
		}
		c, err := number(closes[i])
		if err != nil {
			return nil, fmt.Errorf("parse close %v: %w", closes[i], err)
		}
		cd := entity.Candle{Symbol: sym, Interval: interval, Time: tm, Close: c, High: c, Low: c, Open: c}
		if opens != nil {
			if o, err := number(opens[i]); err == nil {
				cd.Open = o
				cd.High = max(o, c)
				cd.Low = min(o, c)
			}
		}
		if volumes != nil {
			if v, err := number(volumes[i]); err == nil {
				cd.Volume = int64(v)
			}
		}
		out = append(out, cd)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if outputsize > 0 && len(out) > outputsize {
		out = out[:outputsize]
	}
	return out, nil
}

// column evaluates a JSONPath that must yield a list.
func column(path string, doc any) ([]any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %q: %w", path, err)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonpath %q: expected a list, got %T", path, v)
	}
	return list, nil
}

func optionalColumn(path string, doc any, n int) []any {
	if path == "" {
		return nil
	}
	list, err := column(path, doc)
	if err != nil || len(list) != n {
		return nil
	}
	return list
}

func number(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.ReplaceAll(x, ",", ""), 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

// parseTime accepts unix seconds or an ISO date.
func parseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case float64:
		return time.Unix(int64(x), 0).UTC(), nil
	case string:
		if tm, err := time.Parse("2006-01-02", x); err == nil {
			return tm, nil
		}
		return time.Parse(time.RFC3339, x)
	}
	return time.Time{}, fmt.Errorf("unsupported time %T", v)
}
