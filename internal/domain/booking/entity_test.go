package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	b := NewBooking("stadium-1", "user-1", start, end, "練習試合")
	require.NoError(t, b.Validate())

	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, "stadium-1", b.StadiumID)
	assert.Equal(t, "user-1", b.UserID)
	assert.Equal(t, 0, b.Version)
	assert.Equal(t, 2.0, b.Hours())
}

func TestBooking_Validate(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name      string
		stadiumID string
		userID    string
		note      string
		wantErr   error
	}{
		{name: "正常な予約", stadiumID: "stadium-1", userID: "user-1", note: "メモ"},
		{name: "スタジアムID未指定", stadiumID: "", userID: "user-1", wantErr: ErrStadiumIDRequired},
		{name: "ユーザーID未指定", stadiumID: "stadium-1", userID: "", wantErr: ErrUserIDRequired},
		{name: "メモが長すぎる", stadiumID: "stadium-1", userID: "user-1", note: strings.Repeat("あ", MaxNoteLength+1), wantErr: ErrNoteTooLong},
		{name: "メモが上限ちょうど", stadiumID: "stadium-1", userID: "user-1", note: strings.Repeat("あ", MaxNoteLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBooking(tt.stadiumID, tt.userID, start, end, tt.note)
			err := b.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBooking_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		wantErr error
	}{
		{"confirmed からキャンセルできる", StatusConfirmed, nil},
		{"cancelled からはキャンセルできない", StatusCancelled, ErrInvalidBookingState},
		{"completed からはキャンセルできない", StatusCompleted, ErrInvalidBookingState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking(t)
			b.Status = tt.status
			err := b.Cancel()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.status, b.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, b.Status)
		})
	}
}

func TestBooking_Complete(t *testing.T) {
	b := testBooking(t)
	require.NoError(t, b.Complete())
	assert.Equal(t, StatusCompleted, b.Status)

	// 終端状態からは遷移できない
	assert.ErrorIs(t, b.Complete(), ErrInvalidBookingState)
	assert.ErrorIs(t, b.Cancel(), ErrInvalidBookingState)
}

func TestBooking_IsModificationWindowClosed(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		start  time.Time
		closed bool
	}{
		{"開始まで6時間を切っている", now.Add(5 * time.Hour), true},
		{"開始のちょうど6時間前", now.Add(6 * time.Hour), true},
		{"開始の6時間1分前", now.Add(6*time.Hour + time.Minute), false},
		{"開始まで十分に余裕がある", now.Add(48 * time.Hour), false},
		{"開始時刻を過ぎている", now.Add(-time.Hour), true},
		{"開始時刻が未設定", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBooking(t)
			b.StartTime = tt.start
			assert.Equal(t, tt.closed, b.IsModificationWindowClosed(now))
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	at := func(h float64) time.Time { return base.Add(time.Duration(h * float64(time.Hour))) }

	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"完全に重なる", at(0), at(2), at(0), at(2), true},
		{"部分的に重なる", at(0), at(2), at(1), at(3), true},
		{"包含される", at(0), at(3), at(1), at(2), true},
		{"端が接するだけ（後続）", at(0), at(2), at(2), at(4), false},
		{"端が接するだけ（先行）", at(2), at(4), at(0), at(2), false},
		{"完全に離れている", at(0), at(1), at(2), at(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			// 区間の重なりは対称
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func testBooking(t *testing.T) *Booking {
	t.Helper()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	b := NewBooking("stadium-1", "user-1", start, start.Add(time.Hour), "")
	require.NoError(t, b.Validate())
	return b
}
