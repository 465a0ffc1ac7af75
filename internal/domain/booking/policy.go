package booking

import "time"

// DurationPolicy は予約時間の長さに関するポリシー
// 値は設定から差し替え可能で、検証ロジック自体には埋め込まない
type DurationPolicy struct {
	MinHours           float64
	MaxHours           float64
	GranularityMinutes int
}

// DefaultDurationPolicy は既定のポリシー（1〜3時間、30分刻み）を返す
func DefaultDurationPolicy() DurationPolicy {
	return DurationPolicy{
		MinHours:           1.0,
		MaxHours:           3.0,
		GranularityMinutes: 30,
	}
}

// Validate は予約時間帯の長さを検証する
func (p DurationPolicy) Validate(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeRange
	}

	minutes := int(end.Sub(start) / time.Minute)
	hours := float64(minutes) / 60.0

	if hours < p.MinHours {
		return ErrBookingTooShort
	}
	if hours > p.MaxHours {
		return ErrBookingTooLong
	}
	if p.GranularityMinutes > 0 && minutes%p.GranularityMinutes != 0 {
		return ErrBadGranularity
	}
	return nil
}
