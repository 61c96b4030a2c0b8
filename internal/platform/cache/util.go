package cache

import (
	"time"
)

// SessionOpenHour と SessionOpenMinute はPSXの取引開始時刻（パキスタン時間）です。
const (
	SessionOpenHour   = 9
	SessionOpenMinute = 30
)

// karachi はPSXのタイムゾーンです。tzdataがない環境ではUTC+5の固定ゾーンを使います。
func karachi() *time.Location {
	loc, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		return time.FixedZone("PKT", 5*60*60)
	}
	return loc
}

// TimeUntilNextSession は now から次の取引日の寄り付きまでの期間を返します。
// 土日は取引日として扱いません。
func TimeUntilNextSession(now time.Time) time.Duration {
	loc := karachi()
	local := now.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), SessionOpenHour, SessionOpenMinute, 0, 0, loc)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(local)
}
