package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hamzasaleh12/stadium-booking-system/internal/application"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	StadiumID string    `json:"stadium_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartTime time.Time `json:"start_time" validate:"required" example:"2025-07-01T10:00:00Z"`
	EndTime   time.Time `json:"end_time" validate:"required" example:"2025-07-01T12:00:00Z"`
	Note      string    `json:"note" example:"社内フットサル大会"`
}

type UpdateBookingRequest struct {
	StadiumID *string    `json:"stadium_id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Note      *string    `json:"note"`
}

type BookingResponse struct {
	ID         string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StadiumID  string    `json:"stadium_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID     string    `json:"user_id" example:"user-123"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TotalPrice float64   `json:"total_price" example:"220"`
	Note       string    `json:"note,omitempty"`
	Status     string    `json:"status" example:"confirmed"`
	Version    int       `json:"version" example:"0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, StadiumID: b.StadiumID, UserID: b.UserID,
		StartTime: b.StartTime, EndTime: b.EndTime,
		TotalPrice: b.TotalPrice, Note: b.Note,
		Status: string(b.Status), Version: b.Version,
		CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 指定スタジアムの時間帯を予約します。重複する予約があれば409を返します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param X-User-Role header string false "ロール（admin/manager/player、省略時はplayer）"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string "時間帯が重複、または同時更新で競合"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), p, application.CreateBookingInput{
		StadiumID: req.StadiumID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します。一般ユーザーは自分の予約のみ参照できます
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// List godoc
// @Summary 予約一覧を取得
// @Description ロールに応じた範囲の予約一覧を取得します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param X-User-Role header string false "ロール"
// @Param stadium_id query string false "スタジアムIDで絞り込み（managerは必須）"
// @Param user_id query string false "ユーザーIDで絞り込み（admin/managerのみ）"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 403 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.ListBookings(c.Request().Context(), p,
		c.QueryParam("stadium_id"), c.QueryParam("user_id"), limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 予約を変更
// @Description 開始6時間前まで予約の時間帯・スタジアム・メモを変更できます。スタジアム変更時は変更先の空き状況と営業時間で判定し、料金も変更先の単価で再計算します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Param request body UpdateBookingRequest true "変更内容"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} map[string]string "所有者でない、または変更期限切れ"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	b, err := h.service.UpdateBooking(c.Request().Context(), p, application.UpdateBookingInput{
		ID:        c.Param("id"),
		StadiumID: req.StadiumID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 開始6時間前まで予約をキャンセルできます（管理者は期限なし）
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "すでに終端状態"
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	b, err := h.service.CancelBooking(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Schedule godoc
// @Summary スタジアムの日別スケジュールを取得
// @Description 指定日の予約済み時間帯を返します（認証不要）
// @Tags stadiums
// @Produce json
// @Param id path string true "スタジアムID"
// @Param date query string true "対象日（YYYY-MM-DD）"
// @Success 200 {array} booking.TimeSlot
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /stadiums/{id}/schedule [get]
func (h *BookingHandler) Schedule(c echo.Context) error {
	day, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付はYYYY-MM-DD形式で指定してください")
	}
	slots, err := h.service.GetDaySchedule(c.Request().Context(), c.Param("id"), day)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, slots)
}
