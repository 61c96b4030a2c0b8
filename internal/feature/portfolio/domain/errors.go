// Package domain holds sentinel errors of the portfolio feature.
package domain

import "errors"

// ErrInvalidHolding は数量または取得単価が正でない、または銘柄が空の保有を表します。
// 1件でも不正な保有があればリクエスト全体が失敗します。
var ErrInvalidHolding = errors.New("invalid holding")
