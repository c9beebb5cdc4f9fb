package main

import (
	"os"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/domain/model"
	"wardrobe/internal/handler"
	"wardrobe/internal/infra/db"
	infraRepo "wardrobe/internal/infra/repository"
	"wardrobe/internal/server"
	"wardrobe/internal/usecase"
	auth "wardrobe/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(secret string) *jwtIssuer {
	//アクセストークン（3時間）
	return &jwtIssuer{
		secret:    []byte(secret),
		accessTTL: 3 * time.Hour,
	}
}

func (i *jwtIssuer) Issue(userID int64, isAdmin bool, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":      userID,
		"is_admin": isAdmin,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	//.envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Item{},
		&model.SizeStock{},
		&model.Cart{},
		&model.CartLine{},
		&model.Order{},
		&model.OrderLine{},
		&model.StockAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	//Repository（GORM実装）生成
	itemRepo := infraRepo.NewItemGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	sessionRepo := infraRepo.NewSessionGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := &realClock{}
	hasher := auth.NewBcryptPasswordHasher(10)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := newJWTIssuer(cfg.JWTSecret)
	numGen := usecase.NewOrderNumberGenerator("ORD")

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, sessionRepo, verifier, issuer, clock)
	logoutUC := auth.NewLogoutUsecase(sessionRepo)
	itemUC := usecase.NewItemUsecase(itemRepo, inventoryRepo, cartRepo, userRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, itemRepo)
	orderUC := usecase.NewOrderUsecase(txManager, cfg.Shipping, numGen, logger)
	userUC := usecase.NewUserUsecase(userRepo, itemRepo)

	//Handler生成
	handlers := server.Handlers{
		Item:      handler.NewItemHandler(itemUC),
		AdminItem: handler.NewAdminItemHandler(itemUC),
		Cart:      handler.NewCartHandler(cartUC),
		Order:     handler.NewOrderHandler(orderUC),
		User:      handler.NewUserHandler(registerUC, loginUC, logoutUC, userUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	e := server.New(cfg, handlers)
	logger.Info().Str("addr", addr).Msg("server starting")
	if err := server.Start(e, addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
