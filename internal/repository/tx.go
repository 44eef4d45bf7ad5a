package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type querierKey struct{}

// bindQuerier pins every repository call under ctx to q. WithEmployeeLock
// uses it to route the whole evaluate-then-insert sequence onto the locking
// transaction's connection.
func bindQuerier(ctx context.Context, q sqlx.ExtContext) context.Context {
	return context.WithValue(ctx, querierKey{}, q)
}

func boundQuerier(ctx context.Context) (sqlx.ExtContext, bool) {
	q, ok := ctx.Value(querierKey{}).(sqlx.ExtContext)
	return q, ok
}

// querier returns the querier bound to ctx, falling back to the shared pool.
func querier(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if q, ok := boundQuerier(ctx); ok {
		return q
	}
	return db
}
