package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ModificationCutoff は予約開始前の変更禁止期間
// 開始のちょうど6時間前を過ぎるとキャンセル・変更できなくなる
const ModificationCutoff = 6 * time.Hour

// MaxNoteLength はメモの最大文字数
const MaxNoteLength = 255

// Booking は予約エンティティを表す
type Booking struct {
	ID         string
	StadiumID  string
	UserID     string
	StartTime  time.Time
	EndTime    time.Time
	TotalPrice float64
	Note       string
	Status     Status
	Version    int // 楽観的ロック用
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBooking は新しい予約を作成する
// 状態は常に confirmed で開始し、価格は呼び出し側が再計算して設定する
func NewBooking(stadiumID, userID string, start, end time.Time, note string) *Booking {
	now := time.Now()
	return &Booking{
		StadiumID: stadiumID,
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Note:      note,
		Status:    StatusConfirmed,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.StadiumID == "" {
		return ErrStadiumIDRequired
	}
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if len([]rune(b.Note)) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// Hours は予約時間を時間単位で返す（0.5時間刻みの端数あり）
func (b *Booking) Hours() float64 {
	return b.EndTime.Sub(b.StartTime).Minutes() / 60.0
}

// IsConfirmed は予約が確定中かを返す
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Cancel は予約をキャンセルする
// confirmed 以外（終端状態）からの遷移は許可しない
func (b *Booking) Cancel() error {
	if b.Status != StatusConfirmed {
		return ErrInvalidBookingState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// Complete は終了時刻を過ぎた予約を完了状態にする
func (b *Booking) Complete() error {
	if b.Status != StatusConfirmed {
		return ErrInvalidBookingState
	}
	b.Status = StatusCompleted
	b.UpdatedAt = time.Now()
	return nil
}

// IsModificationWindowClosed は変更受付が締め切られているかを返す
// 開始時刻が未設定の予約は安全側に倒して締切扱いとする
func (b *Booking) IsModificationWindowClosed(now time.Time) bool {
	if b.StartTime.IsZero() {
		return true
	}
	return !now.Before(b.StartTime.Add(-ModificationCutoff))
}

// Overlaps は半開区間 [s1,e1) と [s2,e2) が重なるかを返す
// 端が接するだけの場合（12:00終了と12:00開始など）は重ならない
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// TimeSlot はスケジュール表示用の予約済み時間帯
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    Status    `json:"status"`
}
