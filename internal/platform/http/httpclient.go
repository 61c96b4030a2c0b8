// Package http provides the outbound HTTP client shared by the market data and email adapters.
package http

import (
	"net"
	"net/http"
	"time"
)

// UserAgent is sent on every outbound request. The TradingView scanner rejects empty agents.
const UserAgent = "psx_backend/1.0"

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: HTTP_PROXY などの環境変数に従う
//   - Dialer.Timeout / TLSHandshakeTimeout: 接続段階は短めに打ち切る
//   - MaxIdleConnsPerHost: 同一ホストへの並行取得（errgroup）で接続を使い回す
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// http.DefaultClient にはタイムアウトがないため使用しないこと。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: userAgentTransport{next: t}}
}

// userAgentTransport sets User-Agent unless the caller already did.
type userAgentTransport struct {
	next http.RoundTripper
}

func (u userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	return u.next.RoundTrip(r)
}
