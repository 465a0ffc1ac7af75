package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/identity"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/stadium"
)

// principalFrom はリクエストヘッダーから呼び出し元を取り出す
// 認証自体は上流のゲートウェイが行い、このAPIは解決済みのIDとロールを信頼する
func principalFrom(c echo.Context) (identity.Principal, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return identity.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}

	role, err := identity.ParseRole(c.Request().Header.Get("X-User-Role"))
	if err != nil {
		return identity.Principal{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return identity.Principal{UserID: userID, Role: role}, nil
}

// toHTTPError はドメインエラーをHTTPステータスに対応づける
// 競合（409）は再試行可能、禁止（403）は再試行不可として区別する
func toHTTPError(err error) error {
	switch {
	// 絞り込み不足は存在自体を漏らさないよう404として返す
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, stadium.ErrStadiumNotFound),
		errors.Is(err, identity.ErrStadiumFilterRequired):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, booking.ErrTimeConflict),
		errors.Is(err, booking.ErrConcurrentUpdate),
		errors.Is(err, booking.ErrInvalidBookingState),
		errors.Is(err, stadium.ErrConcurrentUpdate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, booking.ErrNotBookingOwner),
		errors.Is(err, booking.ErrModificationWindowClosed),
		errors.Is(err, stadium.ErrNotStadiumOwner),
		errors.Is(err, identity.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())

	case errors.Is(err, booking.ErrInvalidTimeRange),
		errors.Is(err, booking.ErrTimeInPast),
		errors.Is(err, booking.ErrBookingTooShort),
		errors.Is(err, booking.ErrBookingTooLong),
		errors.Is(err, booking.ErrBadGranularity),
		errors.Is(err, booking.ErrStadiumIDRequired),
		errors.Is(err, booking.ErrUserIDRequired),
		errors.Is(err, booking.ErrNoteTooLong),
		errors.Is(err, stadium.ErrOutsideOperatingHours),
		errors.Is(err, stadium.ErrStadiumNameRequired),
		errors.Is(err, stadium.ErrOwnerIDRequired),
		errors.Is(err, stadium.ErrInvalidPricePerHour),
		errors.Is(err, stadium.ErrInvalidBallRentalFee),
		errors.Is(err, stadium.ErrInvalidOperatingHours),
		errors.Is(err, identity.ErrUnknownRole),
		errors.Is(err, identity.ErrPrincipalRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// 分類できないエラーは内部詳細を応答に含めない
	// 元のエラーはSetInternal経由でエラーハンドラーのログに残る
	return echo.NewHTTPError(http.StatusInternalServerError, "内部エラーが発生しました").SetInternal(err)
}
