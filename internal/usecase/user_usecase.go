package usecase

import (
	"context"
	"net/http"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"
)

// UserUsecase はお気に入りとユーザー情報の業務ロジックです。
type UserUsecase struct {
	userRepo repo.UserRepository
	itemRepo repo.ItemRepository
}

func NewUserUsecase(userRepo repo.UserRepository, itemRepo repo.ItemRepository) *UserUsecase {
	return &UserUsecase{userRepo: userRepo, itemRepo: itemRepo}
}

type UserDetailsOutput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u *UserUsecase) GetUserDetails(ctx context.Context, userID int64) (UserDetailsOutput, error) {
	if userID <= 0 {
		return UserDetailsOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return UserDetailsOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return UserDetailsOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}

	return UserDetailsOutput{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}

// AddFavorite はお気に入りに追加（既にあれば何もしない）。
func (u *UserUsecase) AddFavorite(ctx context.Context, userID int64, itemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	item, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "item not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !item.IsActive {
		return NewHTTPError(http.StatusNotFound, "item not found")
	}

	if err := u.userRepo.AddFavorite(ctx, userID, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// RemoveFavorite はお気に入りから外す（無ければ何もしない）。
func (u *UserUsecase) RemoveFavorite(ctx context.Context, userID int64, itemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	if err := u.userRepo.RemoveFavorite(ctx, userID, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *UserUsecase) ListFavorites(ctx context.Context, userID int64) ([]model.Item, error) {
	if userID <= 0 {
		return []model.Item{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.userRepo.ListFavorites(ctx, userID)
	if err != nil {
		return []model.Item{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}
