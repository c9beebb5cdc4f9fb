package repository

import (
	"context"

	"wardrobe/internal/domain/model"
)

type SessionRepository interface {
	Create(ctx context.Context, session model.Session) error
	//ハッシュで1件取得
	FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error)
	//ログアウトなどで失効させる
	Revoke(ctx context.Context, sessionID string) error
}
