package usecase

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// 注文番号の生成戦略。PREFIX-TIMESTAMP-RANDの形。
// 一意性の最終保証は生成側ではなくorder_numberのユニーク制約。
type OrderNumberGenerator interface {
	Generate(now time.Time) string
}

type randomOrderNumberGenerator struct {
	prefix string
}

func NewOrderNumberGenerator(prefix string) OrderNumberGenerator {
	if prefix == "" {
		prefix = "ORD"
	}
	return &randomOrderNumberGenerator{prefix: prefix}
}

// ミリ秒時刻の下6桁＋3桁の乱数
func (g *randomOrderNumberGenerator) Generate(now time.Time) string {
	ts := now.UnixMilli() % 1_000_000

	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		//crypto/randが読めない環境はナノ秒で代用する
		n = big.NewInt(now.UnixNano() % 1000)
	}

	return fmt.Sprintf("%s-%06d-%03d", g.prefix, ts, n.Int64())
}
