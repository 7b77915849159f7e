package gormrepo

import (
	"context"
	"testing"

	"gorm.io/gorm"
)

func TestContextCarriesTransaction(t *testing.T) {
	ctx := context.Background()
	if inTx(ctx) {
		t.Fatalf("expected plain context to carry no tx")
	}
	tx := &gorm.DB{}
	txCtx := withTx(ctx, tx)
	if !inTx(txCtx) {
		t.Fatalf("expected tx context")
	}
	if got := getDBFromCtx(txCtx, &gorm.DB{}); got != tx {
		t.Fatalf("expected the carried tx to be returned")
	}
	if inTx(withTx(ctx, nil)) {
		t.Fatalf("expected nil tx to be ignored")
	}
}
