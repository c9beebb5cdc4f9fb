package auth

import (
	"context"
	"errors"

	"wardrobe/internal/repository"
)

// LogoutUsecaseは提示されたトークンのセッションを失効させる。
type LogoutUsecase struct {
	sessionRepo repository.SessionRepository
}

// DI
func NewLogoutUsecase(sessionRepo repository.SessionRepository) *LogoutUsecase {
	return &LogoutUsecase{sessionRepo: sessionRepo}
}

// ログアウト実行。
// セッションが見つからない・失効済みでも成功にする（冪等）。
func (u *LogoutUsecase) Execute(ctx context.Context, rawToken string) error {
	session, err := u.sessionRepo.FindByTokenHash(ctx, hashToken(rawToken))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if session.RevokedAt != nil {
		return nil
	}

	if err := u.sessionRepo.Revoke(ctx, session.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
