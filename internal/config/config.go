package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"wardrobe/internal/domain/model"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSで使う）

	Shipping ShippingConfig
}

// 送料のテーブル。ロジックではなく設定として持つ。
type ShippingConfig struct {
	//この金額を超えたら送料無料
	FreeShippingThreshold decimal.Decimal

	//配送方法ごとの固定送料
	Fees map[model.ShippingMethod]decimal.Decimal
}

// FeeForは小計に応じた送料を返す。
// 小計が閾値を超えていれば0、そうでなければ配送方法の固定額。
func (s ShippingConfig) FeeFor(method model.ShippingMethod, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	fee, ok := s.Fees[method]
	if !ok {
		return decimal.Zero, false
	}
	if subtotal.GreaterThan(s.FreeShippingThreshold) {
		return decimal.Zero, true
	}
	return fee, true
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	shipping, err := loadShipping()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		Shipping: shipping,
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// 送料テーブルを環境変数から読む（未設定はデフォルト）。
func loadShipping() (ShippingConfig, error) {
	threshold, err := decimalEnv("FREE_SHIPPING_THRESHOLD", "60")
	if err != nil {
		return ShippingConfig{}, err
	}
	homeFee, err := decimalEnv("HOME_SHIPPING_FEE", "10")
	if err != nil {
		return ShippingConfig{}, err
	}
	mailboxFee, err := decimalEnv("MAILBOX_SHIPPING_FEE", "5")
	if err != nil {
		return ShippingConfig{}, err
	}

	return ShippingConfig{
		FreeShippingThreshold: threshold,
		Fees: map[model.ShippingMethod]decimal.Decimal{
			model.ShippingMethodHome:    homeFee,
			model.ShippingMethodMailbox: mailboxFee,
		},
	}, nil
}

func decimalEnv(key string, def string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0", key)
	}
	return d, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
