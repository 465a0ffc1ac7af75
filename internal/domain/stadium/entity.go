package stadium

import (
	"fmt"
	"time"
)

// Status はスタジアムの状態を表す
// 予約履歴を保全するため物理削除は行わず、deleted への切り替えのみ行う
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// TimeOfDay は0時からの経過分で表した時刻
type TimeOfDay int

// ParseTimeOfDay は "HH:MM" 形式の文字列を解析する
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, ErrInvalidOperatingHours
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrInvalidOperatingHours
	}
	return TimeOfDay(hour*60 + minute), nil
}

// String は "HH:MM" 形式の文字列を返す
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// timeOfDayOf は時刻から時・分のみを取り出す
func timeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Stadium はスタジアムエンティティを表す
type Stadium struct {
	ID              string
	Name            string
	Location        string
	PricePerHour    float64
	BallRentalFee   float64
	OpenAt          TimeOfDay
	CloseAt         TimeOfDay // OpenAt 以前の値は深夜営業（日をまたぐ営業時間）を表す
	OwnerID         string
	LastLockAttempt *time.Time // 予約確定時に更新される直列化用タイムスタンプ
	Status          Status
	Version         int // 楽観的ロック用
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewStadium は新しいスタジアムを作成する
func NewStadium(name, location, ownerID string, pricePerHour, ballRentalFee float64, openAt, closeAt TimeOfDay) *Stadium {
	now := time.Now()
	return &Stadium{
		Name:          name,
		Location:      location,
		PricePerHour:  pricePerHour,
		BallRentalFee: ballRentalFee,
		OpenAt:        openAt,
		CloseAt:       closeAt,
		OwnerID:       ownerID,
		Status:        StatusActive,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate はスタジアムの検証を行う
func (s *Stadium) Validate() error {
	if s.Name == "" {
		return ErrStadiumNameRequired
	}
	if s.OwnerID == "" {
		return ErrOwnerIDRequired
	}
	if s.PricePerHour <= 0 {
		return ErrInvalidPricePerHour
	}
	if s.BallRentalFee < 0 {
		return ErrInvalidBallRentalFee
	}
	return nil
}

// IsActive はスタジアムが利用可能かを返す
func (s *Stadium) IsActive() bool {
	return s.Status == StatusActive
}

// IsOvernight は営業時間が日をまたぐかを返す
func (s *Stadium) IsOvernight() bool {
	return s.CloseAt <= s.OpenAt
}

// IsOpenFor は予約時間帯 [start,end) が営業時間に収まるかを返す
//
// 通常営業（close > open）では開始・終了の時刻がともに [open, close] に
// 収まることを要求する。深夜営業（close <= open、例: 20:00〜02:00）では、
// 予約自体が日をまたぐ場合（開始時刻 > 終了時刻）は start >= open かつ
// end <= close を要求し、またがない場合は夜間帯・早朝帯のどちらかに
// 完全に入っていれば受け付ける（start >= open または end <= close）
func (s *Stadium) IsOpenFor(start, end time.Time) bool {
	st := timeOfDayOf(start)
	et := timeOfDayOf(end)

	if !s.IsOvernight() {
		return st >= s.OpenAt && st <= s.CloseAt && et >= s.OpenAt && et <= s.CloseAt
	}

	if st > et {
		// 予約が日をまたぐ
		return st >= s.OpenAt && et <= s.CloseAt
	}
	return st >= s.OpenAt || et <= s.CloseAt
}

// PriceFor は予約時間から料金を計算する
// 料金 = 時間 × 時間単価 + ボールレンタル料
func (s *Stadium) PriceFor(hours float64) float64 {
	return hours*s.PricePerHour + s.BallRentalFee
}
