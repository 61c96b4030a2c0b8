package tradingview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
	"psx_backend/internal/platform/externalapi/tradingview/dto"
	"psx_backend/internal/shared/ratelimiter"
)

// columns requested from the scanner; indexes below must follow this order.
var columns = []string{"description", "close", "open", "high", "low", "volume", "change", "RSI"}

const (
	colDescription = iota
	colClose
	colOpen
	colHigh
	colLow
	colVolume
	colChange
	colRSI
)

// Scanner はTradingViewスキャナーAPIからPSXの相場を取得するQuoteSource実装です。
type Scanner struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
	now     func() time.Time
}

// ScannerがQuoteSourceを実装していることをコンパイル時に検証します。
var _ usecase.QuoteSource = (*Scanner)(nil)

// NewScanner はScannerの新しいインスタンスを生成します。limiter は nil でも構いません。
func NewScanner(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Scanner {
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = DefaultConfig().ScanLimit
	}
	return &Scanner{cfg: cfg, client: client, limiter: limiter, now: time.Now}
}

// Quote は1銘柄の相場を返します。スキャナーに存在しない銘柄は domain.ErrSymbolNotFound になります。
func (s *Scanner) Quote(ctx context.Context, symbol string) (entity.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	qs, err := s.scan(ctx, dto.ScanRequest{
		Columns: columns,
		Range:   [2]int{0, 1},
		Markets: []string{s.cfg.Market},
		Symbols: dto.Symbols{Query: dto.SymbolQuery{Types: []string{}}, Tickers: []string{symbol}},
	})
	if err != nil {
		return entity.Quote{}, err
	}
	for _, q := range qs {
		if q.Symbol == symbol {
			return q, nil
		}
	}
	return entity.Quote{}, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
}

// Scan は市場全体の相場を出来高順に最大 ScanLimit 件返します。
func (s *Scanner) Scan(ctx context.Context) ([]entity.Quote, error) {
	return s.scan(ctx, dto.ScanRequest{
		Columns: columns,
		Range:   [2]int{0, s.cfg.ScanLimit},
		Sort:    &dto.Sort{SortBy: "volume", SortOrder: "desc"},
		Markets: []string{s.cfg.Market},
		Symbols: dto.Symbols{Query: dto.SymbolQuery{Types: []string{}}},
	})
}

func (s *Scanner) scan(ctx context.Context, body dto.ScanRequest) ([]entity.Quote, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal scan request: %w", err)
	}
	u := fmt.Sprintf("%s/%s/scan", s.cfg.BaseURL, s.cfg.Market)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("tradingview http %d: %s", res.StatusCode, bytes.TrimSpace(msg))
	}

	var out dto.ScanResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode scan response: %w", err)
	}

	ts := s.now().UTC()
	quotes := make([]entity.Quote, 0, len(out.Data))
	for _, row := range out.Data {
		q, ok := toQuote(row, ts)
		if !ok {
			slog.Debug("skipping scanner row without price", "symbol", row.S)
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// toQuote maps a positional scanner row. Rows without a close price are dropped.
func toQuote(row dto.Row, ts time.Time) (entity.Quote, bool) {
	price, ok := num(row.D, colClose)
	if !ok {
		return entity.Quote{}, false
	}
	q := entity.Quote{
		Symbol:    domain.NormalizeSymbol(row.S),
		Price:     price,
		Timestamp: ts,
	}
	if v, ok := row.D[colDescription].(string); ok {
		q.Name = v
	}
	q.Open, _ = num(row.D, colOpen)
	q.High, _ = num(row.D, colHigh)
	q.Low, _ = num(row.D, colLow)
	q.ChangePercent, _ = num(row.D, colChange)
	if v, ok := num(row.D, colVolume); ok {
		q.Volume = int64(v)
	}
	if v, ok := num(row.D, colRSI); ok {
		q.RSI = &v
	}
	return q, true
}

func num(d []any, i int) (float64, bool) {
	if i >= len(d) {
		return 0, false
	}
	v, ok := d[i].(float64)
	return v, ok
}
