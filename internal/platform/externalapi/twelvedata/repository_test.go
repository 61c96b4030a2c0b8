package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"psx_backend/internal/feature/market/domain"
)

func newTestMarket(t *testing.T, h http.HandlerFunc) *TwelveDataMarket {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = server.URL
	return NewTwelveDataMarket(cfg, server.Client())
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.Exchange != "PSX" {
		t.Errorf("expected exchange PSX, got %q", cfg.Exchange)
	}
}

func TestTwelveDataMarket_GetTimeSeries_Success(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// "PSX:SHEZ" はティッカーと取引所に分解される
		if q.Get("symbol") != "SHEZ" {
			t.Errorf("expected symbol SHEZ, got %s", q.Get("symbol"))
		}
		if q.Get("exchange") != "PSX" {
			t.Errorf("expected exchange PSX, got %s", q.Get("exchange"))
		}
		if q.Get("interval") != "1day" || q.Get("outputsize") != "120" || q.Get("apikey") != "test-key" {
			t.Errorf("unexpected query %v", q)
		}
		writeJSON(w, `{
			"meta": {"symbol": "SHEZ", "interval": "1day", "currency": "PKR", "exchange": "PSX"},
			"status": "ok",
			"values": [
				{"datetime": "2025-01-15", "open": "280.00", "high": "305.00", "low": "279.50", "close": "300.00", "volume": "125000"},
				{"datetime": "2025-01-14", "open": "275.00", "high": "282.00", "low": "270.00", "close": "280.00", "volume": ""}
			]
		}`)
	})

	candles, err := market.GetTimeSeries(context.Background(), "PSX:SHEZ", "1day", 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Symbol != "PSX:SHEZ" || candles[0].Close != 300 || candles[0].Volume != 125000 {
		t.Errorf("unexpected first candle: %+v", candles[0])
	}
	// 空の出来高は0として扱う
	if candles[1].Volume != 0 {
		t.Errorf("expected volume 0 for empty string, got %d", candles[1].Volume)
	}
}

func TestTwelveDataMarket_GetTimeSeries_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		handler      http.HandlerFunc
		wantNotFound bool
		wantContains string
	}{
		{
			name:         "http 500",
			handler:      func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantContains: "twelvedata http 500",
		},
		{
			name:         "http 404 is symbol not found",
			handler:      func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantNotFound: true,
		},
		{
			name: "api error body for unknown symbol",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"code": 400, "status": "error", "message": "**symbol** not found: NOPE"}`)
			},
			wantNotFound: true,
		},
		{
			name: "api error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"code": 401, "status": "error", "message": "Invalid API key"}`)
			},
			wantContains: "Invalid API key",
		},
		{
			name:         "invalid json",
			handler:      func(w http.ResponseWriter, r *http.Request) { writeJSON(w, `{invalid json`) },
			wantContains: "invalid",
		},
		{
			name: "invalid datetime",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"status": "ok", "values": [{"datetime": "bad", "open": "1", "high": "1", "low": "1", "close": "1", "volume": "1"}]}`)
			},
			wantContains: "parse datetime",
		},
		{
			name: "invalid close",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"status": "ok", "values": [{"datetime": "2025-01-15", "open": "1", "high": "1", "low": "1", "close": "x", "volume": "1"}]}`)
			},
			wantContains: "parse price",
		},
		{
			name: "invalid volume",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"status": "ok", "values": [{"datetime": "2025-01-15", "open": "1", "high": "1", "low": "1", "close": "1", "volume": "n/a"}]}`)
			},
			wantContains: "parse volume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			market := newTestMarket(t, tt.handler)
			_, err := market.GetTimeSeries(context.Background(), "NOPE", "1day", 10)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantNotFound && !errors.Is(err, domain.ErrSymbolNotFound) {
				t.Errorf("expected ErrSymbolNotFound, got %v", err)
			}
			if tt.wantContains != "" && !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("expected error containing %q, got %v", tt.wantContains, err)
			}
		})
	}
}

func TestTwelveDataMarket_GetTimeSeries_ContextCancellation(t *testing.T) {
	t.Parallel()

	market := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := market.GetTimeSeries(ctx, "SHEZ", "1day", 10); err == nil {
		t.Fatal("expected error due to context cancellation, got nil")
	}
}
