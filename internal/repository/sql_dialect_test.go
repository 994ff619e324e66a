package repository

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestIsDuplicateKeyError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{errors.New("UNIQUE constraint failed: fulfillment_records.order_id"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_fulfillment_records_order_id" (SQLSTATE 23505)`), true},
		{errors.New("database is locked"), false},
	}
	for _, tc := range cases {
		if got := isDuplicateKeyError(tc.err); got != tc.want {
			t.Fatalf("isDuplicateKeyError(%v) want %v got %v", tc.err, tc.want, got)
		}
	}
}
