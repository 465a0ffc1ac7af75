package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hamzasaleh12/stadium-booking-system/internal/application"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/stadium"
)

type StadiumHandler struct {
	service StadiumServiceInterface
}

func NewStadiumHandler(s StadiumServiceInterface) *StadiumHandler {
	return &StadiumHandler{service: s}
}

type CreateStadiumRequest struct {
	Name          string  `json:"name" validate:"required" example:"豊洲フットサルアリーナ"`
	Location      string  `json:"location" example:"東京都江東区豊洲1-2-3"`
	PricePerHour  float64 `json:"price_per_hour" validate:"required,gt=0" example:"100"`
	BallRentalFee float64 `json:"ball_rental_fee" validate:"gte=0" example:"20"`
	OpenAt        string  `json:"open_at" validate:"required" example:"09:00"`
	CloseAt       string  `json:"close_at" validate:"required" example:"22:00"`
	OwnerID       string  `json:"owner_id" example:"user-123"`
}

type UpdateStadiumRequest struct {
	Name          string  `json:"name" validate:"required"`
	Location      string  `json:"location"`
	PricePerHour  float64 `json:"price_per_hour" validate:"required,gt=0"`
	BallRentalFee float64 `json:"ball_rental_fee" validate:"gte=0"`
	OpenAt        string  `json:"open_at" validate:"required"`
	CloseAt       string  `json:"close_at" validate:"required"`
	Version       int     `json:"version" validate:"gte=0"`
}

type StadiumResponse struct {
	ID            string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name          string    `json:"name" example:"豊洲フットサルアリーナ"`
	Location      string    `json:"location,omitempty"`
	PricePerHour  float64   `json:"price_per_hour" example:"100"`
	BallRentalFee float64   `json:"ball_rental_fee" example:"20"`
	OpenAt        string    `json:"open_at" example:"09:00"`
	CloseAt       string    `json:"close_at" example:"22:00"`
	OwnerID       string    `json:"owner_id" example:"user-123"`
	Status        string    `json:"status" example:"active"`
	Version       int       `json:"version" example:"0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toStadiumResponse(s *stadium.Stadium) StadiumResponse {
	return StadiumResponse{
		ID: s.ID, Name: s.Name, Location: s.Location,
		PricePerHour: s.PricePerHour, BallRentalFee: s.BallRentalFee,
		OpenAt: s.OpenAt.String(), CloseAt: s.CloseAt.String(),
		OwnerID: s.OwnerID, Status: string(s.Status), Version: s.Version,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

// Create godoc
// @Summary スタジアムを作成
// @Description スタジアムを登録します（manager/adminのみ）
// @Tags stadiums
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param X-User-Role header string true "ロール（manager/admin）"
// @Param request body CreateStadiumRequest true "スタジアム情報"
// @Success 201 {object} StadiumResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /stadiums [post]
func (h *StadiumHandler) Create(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req CreateStadiumRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateStadium(c.Request().Context(), p, application.CreateStadiumInput{
		Name:          req.Name,
		Location:      req.Location,
		PricePerHour:  req.PricePerHour,
		BallRentalFee: req.BallRentalFee,
		OpenAt:        req.OpenAt,
		CloseAt:       req.CloseAt,
		OwnerID:       req.OwnerID,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toStadiumResponse(s))
}

// GetByID godoc
// @Summary スタジアムを取得
// @Description 指定IDの有効なスタジアムを取得します
// @Tags stadiums
// @Produce json
// @Param id path string true "スタジアムID"
// @Success 200 {object} StadiumResponse
// @Failure 404 {object} map[string]string
// @Router /stadiums/{id} [get]
func (h *StadiumHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetStadium(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toStadiumResponse(s))
}

// List godoc
// @Summary スタジアム一覧を取得
// @Description 有効なスタジアムの一覧を取得します
// @Tags stadiums
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} StadiumResponse
// @Router /stadiums [get]
func (h *StadiumHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	stadiums, err := h.service.ListStadiums(c.Request().Context(), limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]StadiumResponse, len(stadiums))
	for i, s := range stadiums {
		resp[i] = toStadiumResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary スタジアムを更新
// @Description スタジアム情報を更新します（所有者またはadminのみ）
// @Tags stadiums
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "スタジアムID"
// @Param request body UpdateStadiumRequest true "更新内容"
// @Success 200 {object} StadiumResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "同時更新で競合"
// @Router /stadiums/{id} [put]
func (h *StadiumHandler) Update(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	var req UpdateStadiumRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.UpdateStadium(c.Request().Context(), p, application.UpdateStadiumInput{
		ID:            c.Param("id"),
		Name:          req.Name,
		Location:      req.Location,
		PricePerHour:  req.PricePerHour,
		BallRentalFee: req.BallRentalFee,
		OpenAt:        req.OpenAt,
		CloseAt:       req.CloseAt,
		Version:       req.Version,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toStadiumResponse(s))
}

// Delete godoc
// @Summary スタジアムを削除
// @Description スタジアムを削除状態にします。既存の予約は保持されます
// @Tags stadiums
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "スタジアムID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /stadiums/{id} [delete]
func (h *StadiumHandler) Delete(c echo.Context) error {
	p, err := principalFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteStadium(c.Request().Context(), p, c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
