// Package domain holds sentinel errors of the assistant feature.
package domain

import "errors"

var (
	// ErrEmptyQuestion は質問文が空であることを表します。
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrUnknownIntent は分類結果がディスパッチ表に存在しないことを表します。
	ErrUnknownIntent = errors.New("unknown intent")
)
