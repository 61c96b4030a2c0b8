package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
	"psx_backend/internal/platform/externalapi/twelvedata/dto"
)

// TwelveDataMarket はTwelve Data外部APIからPSX銘柄の日足を取得するMarketRepository実装です。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// TwelveDataMarketがMarketRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.MarketRepository = (*TwelveDataMarket)(nil)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client}
}

// GetTimeSeries はTwelve Data APIから時系列株価データを取得し、新しい順の entity.Candle として返します。
// "PSX:SHEZ" のような表記はティッカーと取引所パラメータに分解して送信します。
func (t *TwelveDataMarket) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", domain.Ticker(symbol))
	if t.cfg.Exchange != "" {
		q.Set("exchange", t.cfg.Exchange)
	}
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(outputsize))
	q.Set("apikey", t.cfg.APIKey)

	u := fmt.Sprintf("%s/time_series?%s", t.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: twelvedata %s", domain.ErrSymbolNotFound, symbol)
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("twelvedata http %d", res.StatusCode)
	}

	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		// 存在しない銘柄は 400/404 のエラーボディで返される
		if body.Code == http.StatusBadRequest || body.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: twelvedata: %s", domain.ErrSymbolNotFound, body.Message)
		}
		return nil, fmt.Errorf("twelvedata: %s", body.Message)
	}

	sym := domain.NormalizeSymbol(symbol)
	candles := make([]entity.Candle, 0, len(body.Values))
	for _, bar := range body.Values {
		cd, err := toCandle(bar)
		if err != nil {
			return nil, fmt.Errorf("twelvedata %s: %w", sym, err)
		}
		cd.Symbol, cd.Interval = sym, interval
		candles = append(candles, cd)
	}
	return candles, nil
}

// toCandle parses one bar. Volume is missing for some PSX tickers and is read as 0.
func toCandle(bar dto.Bar) (entity.Candle, error) {
	tm, err := time.Parse(time.DateTime, bar.Datetime)
	if err != nil {
		if tm, err = time.Parse(time.DateOnly, bar.Datetime); err != nil {
			return entity.Candle{}, fmt.Errorf("parse datetime %q: %w", bar.Datetime, err)
		}
	}

	var prices [4]float64
	for i, raw := range [4]string{bar.Open, bar.High, bar.Low, bar.Close} {
		if prices[i], err = strconv.ParseFloat(raw, 64); err != nil {
			return entity.Candle{}, fmt.Errorf("parse price %q: %w", raw, err)
		}
	}

	var vol int64
	if bar.Volume != "" {
		if vol, err = strconv.ParseInt(bar.Volume, 10, 64); err != nil {
			return entity.Candle{}, fmt.Errorf("parse volume %q: %w", bar.Volume, err)
		}
	}
	return entity.Candle{Time: tm, Open: prices[0], High: prices[1], Low: prices[2], Close: prices[3], Volume: vol}, nil
}
