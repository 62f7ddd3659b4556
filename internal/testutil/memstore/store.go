// Package memstore holds in-memory implementations of the repository interfaces for
// service tests. Every store is safe for concurrent use and returns copies, so tests
// observe persisted state the same way they would through PostgreSQL.
package memstore

import (
	"context"
	"encoding/json"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

var _ database.Transactor = Transactor{}

// Transactor runs fn directly; memstore writes are not rolled back.
type Transactor struct{}

func (Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// clone deep-copies v through JSON so nested slices and pointers are not shared.
func clone[T any](v T) T {
	raw, err := json.Marshal(v)
	if err != nil {
		panic("memstore: clone marshal: " + err.Error())
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		panic("memstore: clone unmarshal: " + err.Error())
	}
	return out
}
