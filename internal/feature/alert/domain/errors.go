// Package domain holds sentinel errors of the alert feature.
package domain

import "errors"

var (
	// ErrNotificationDeliveryFailed は通知の送信に失敗したことを表します。
	// 発火したアラートは送信の成否にかかわらず監査ログに記録されます。
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")
	// ErrInvalidRule はユーザー定義アラートの種別や条件が不正であることを表します。
	ErrInvalidRule = errors.New("invalid alert rule")
	// ErrInvalidRecipient は送信先メールアドレスが空であることを表します。
	ErrInvalidRecipient = errors.New("invalid recipient")
)
