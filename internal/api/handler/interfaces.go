package handler

import (
	"context"
	"time"

	"github.com/hamzasaleh12/stadium-booking-system/internal/application"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/booking"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/identity"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/stadium"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, p identity.Principal, input application.CreateBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, p identity.Principal, id string) (*booking.Booking, error)
	ListBookings(ctx context.Context, p identity.Principal, stadiumID, userID string, limit, offset int) ([]*booking.Booking, error)
	UpdateBooking(ctx context.Context, p identity.Principal, input application.UpdateBookingInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, p identity.Principal, id string) (*booking.Booking, error)
	GetDaySchedule(ctx context.Context, stadiumID string, day time.Time) ([]booking.TimeSlot, error)
}

// StadiumServiceInterface はスタジアムサービスのインターフェース
type StadiumServiceInterface interface {
	CreateStadium(ctx context.Context, p identity.Principal, input application.CreateStadiumInput) (*stadium.Stadium, error)
	GetStadium(ctx context.Context, id string) (*stadium.Stadium, error)
	ListStadiums(ctx context.Context, limit, offset int) ([]*stadium.Stadium, error)
	UpdateStadium(ctx context.Context, p identity.Principal, input application.UpdateStadiumInput) (*stadium.Stadium, error)
	DeleteStadium(ctx context.Context, p identity.Principal, id string) error
}
