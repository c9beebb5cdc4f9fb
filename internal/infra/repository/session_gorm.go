package repository

import (
	"context"
	"errors"
	"time"

	"wardrobe/internal/domain/model"
	repo "wardrobe/internal/repository"

	"gorm.io/gorm"
)

type sessionGormRepository struct {
	db *gorm.DB
}

func NewSessionGormRepository(db *gorm.DB) repo.SessionRepository {
	return &sessionGormRepository{db: db}
}

func (r *sessionGormRepository) Create(ctx context.Context, session model.Session) error {
	if err := r.db.WithContext(ctx).Create(&session).Error; err != nil {
		return err
	}
	return nil
}

func (r *sessionGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	var s model.Session

	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&s).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Session{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func (r *sessionGormRepository) Revoke(ctx context.Context, sessionID string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", &now)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
