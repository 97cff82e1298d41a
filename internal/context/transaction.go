package context

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type contextKey string

const (
	TRANSACTION_KEY  contextKey = "fileforge.transaction"
	AFTER_COMMIT_KEY contextKey = "fileforge.afterCommit"
)

// GetTransaction retrieves a transaction from the context
func GetTransaction(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(TRANSACTION_KEY).(*gorm.DB)
	return tx, ok && tx != nil
}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, TRANSACTION_KEY, tx)
}

// WithoutTransaction hides any transaction carried by ctx.
func WithoutTransaction(ctx context.Context) context.Context {
	if _, ok := GetTransaction(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, TRANSACTION_KEY, (*gorm.DB)(nil))
}

// Conn returns the transaction carried by ctx, or fallback bound to ctx.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := GetTransaction(ctx); ok {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// AfterCommit collects callbacks that must only run once the surrounding
// transaction has committed.
type AfterCommit struct {
	mu        sync.Mutex
	callbacks []func()
}

func (a *AfterCommit) add(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Run executes the collected callbacks in registration order.
func (a *AfterCommit) Run() {
	a.mu.Lock()
	callbacks := a.callbacks
	a.callbacks = nil
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func WithAfterCommit(ctx context.Context) (context.Context, *AfterCommit) {
	hooks := &AfterCommit{}
	return context.WithValue(ctx, AFTER_COMMIT_KEY, hooks), hooks
}

// OnCommit defers fn until the transaction in ctx commits. Outside a
// transaction fn runs immediately. Callbacks of a rolled back transaction are
// dropped.
func OnCommit(ctx context.Context, fn func()) {
	if _, inTx := GetTransaction(ctx); inTx {
		if hooks, ok := ctx.Value(AFTER_COMMIT_KEY).(*AfterCommit); ok {
			hooks.add(fn)
			return
		}
	}
	fn()
}
