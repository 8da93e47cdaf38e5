package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound kayıt bulunamadığında tüm repository'lerin döndürdüğü hata.
var ErrNotFound = errors.New("kayıt bulunamadı")

type txKeyType string

// TxKey transaction'ı context üzerinden taşımak için anahtar.
const TxKey txKeyType = "tx"

// ContextWithTx transaction'lı DB'yi context'e ekler.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// dbFromContext context'te tx varsa onu, yoksa verilen bağlantıyı döndürür.
func dbFromContext(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(TxKey).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
