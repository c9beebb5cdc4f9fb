package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"wardrobe/internal/domain/model"
	"wardrobe/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// handlerがJSONにして返す
type LoginOutput struct {
	UserID   int64  `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	IsAdmin  bool   `json:"isAdmin"`

	AccessToken string `json:"token"`
	ExpiresIn   int    `json:"expires_in"`
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, isAdmin bool, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	verifier    PasswordVerifier
	issuer      AccessTokenIssuer
	clock       Clock
}

// DI
func NewLoginUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		issuer:      issuer,
		clock:       clock,
	}
}

// ログイン実行。
// 成功したら発行トークンのハッシュをセッションとして保存する。
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return out, err
	}
	//ユーザー有無はエラーで区別しない
	if user == nil {
		return out, ErrInvalidCredentials
	}

	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return out, ErrInvalidCredentials
	}

	now := u.clock.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.IsAdmin, now)
	if err != nil {
		return out, err
	}

	//トークンは平文では保存しない
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		UserAgent: in.UserAgent,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := u.sessionRepo.Create(ctx, session); err != nil {
		return out, err
	}

	out = LoginOutput{
		UserID:      user.ID,
		Name:        user.UserName,
		LastName:    user.LastName,
		IsAdmin:     user.IsAdmin,
		AccessToken: token,
		ExpiresIn:   int(expiresAt.Sub(now).Seconds()),
	}
	return out, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
