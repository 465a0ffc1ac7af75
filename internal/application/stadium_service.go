package application

import (
	"context"

	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/identity"
	"github.com/hamzasaleh12/stadium-booking-system/internal/domain/stadium"
)

// StadiumService はスタジアムのCRUDを担うサービス
// 変更系は所有者または管理者のみ実行できる。削除は論理削除のみ
type StadiumService struct {
	stadiumRepo stadium.Repository
}

func NewStadiumService(sr stadium.Repository) *StadiumService {
	return &StadiumService{stadiumRepo: sr}
}

type CreateStadiumInput struct {
	Name          string
	Location      string
	PricePerHour  float64
	BallRentalFee float64
	OpenAt        string
	CloseAt       string
	OwnerID       string
}

type UpdateStadiumInput struct {
	ID            string
	Name          string
	Location      string
	PricePerHour  float64
	BallRentalFee float64
	OpenAt        string
	CloseAt       string
	Version       int
}

// CreateStadium はスタジアムを登録する
// 所有者は呼び出し元自身。adminのみ他ユーザーを所有者に指定できる
func (s *StadiumService) CreateStadium(ctx context.Context, p identity.Principal, input CreateStadiumInput) (*stadium.Stadium, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.IsPlayer() {
		return nil, identity.ErrAccessDenied
	}

	ownerID := input.OwnerID
	if ownerID == "" {
		ownerID = p.UserID
	}
	if ownerID != p.UserID && !p.IsAdmin() {
		return nil, identity.ErrAccessDenied
	}

	openAt, err := stadium.ParseTimeOfDay(input.OpenAt)
	if err != nil {
		return nil, err
	}
	closeAt, err := stadium.ParseTimeOfDay(input.CloseAt)
	if err != nil {
		return nil, err
	}

	st := stadium.NewStadium(input.Name, input.Location, ownerID, input.PricePerHour, input.BallRentalFee, openAt, closeAt)
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := s.stadiumRepo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetStadium は有効なスタジアムを取得する
func (s *StadiumService) GetStadium(ctx context.Context, id string) (*stadium.Stadium, error) {
	return s.stadiumRepo.GetActiveByID(ctx, id)
}

// ListStadiums は有効なスタジアム一覧を取得する
func (s *StadiumService) ListStadiums(ctx context.Context, limit, offset int) ([]*stadium.Stadium, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.stadiumRepo.List(ctx, limit, offset)
}

// UpdateStadium はスタジアム情報を更新する（楽観的ロック）
// クライアントは読み取ったバージョンをそのまま送り返す
func (s *StadiumService) UpdateStadium(ctx context.Context, p identity.Principal, input UpdateStadiumInput) (*stadium.Stadium, error) {
	st, err := s.authorizeMutation(ctx, p, input.ID)
	if err != nil {
		return nil, err
	}

	openAt, err := stadium.ParseTimeOfDay(input.OpenAt)
	if err != nil {
		return nil, err
	}
	closeAt, err := stadium.ParseTimeOfDay(input.CloseAt)
	if err != nil {
		return nil, err
	}

	st.Name = input.Name
	st.Location = input.Location
	st.PricePerHour = input.PricePerHour
	st.BallRentalFee = input.BallRentalFee
	st.OpenAt = openAt
	st.CloseAt = closeAt
	st.Version = input.Version

	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := s.stadiumRepo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteStadium はスタジアムを削除状態にする
// 予約履歴を保全するため物理削除は行わず、既存予約はカスケードしない
func (s *StadiumService) DeleteStadium(ctx context.Context, p identity.Principal, id string) error {
	st, err := s.authorizeMutation(ctx, p, id)
	if err != nil {
		return err
	}
	return s.stadiumRepo.SoftDelete(ctx, id, st.Version)
}

// authorizeMutation は変更系操作の権限を確認し、対象スタジアムを返す
func (s *StadiumService) authorizeMutation(ctx context.Context, p identity.Principal, id string) (*stadium.Stadium, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.IsPlayer() {
		return nil, identity.ErrAccessDenied
	}

	st, err := s.stadiumRepo.GetActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && st.OwnerID != p.UserID {
		return nil, stadium.ErrNotStadiumOwner
	}
	return st, nil
}
