package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoTenantScope means a repository ran without a workspace binding.
var ErrNoTenantScope = errors.New("no tenant scope in context")

type contextKey int

const (
	tenantScopeKey contextKey = iota
	tenantBindingKey
)

// tenantBinding names the workspace a request acts in without holding a
// connection. Acquire turns it into a TenantScope for one repository call.
type tenantBinding struct {
	db          *DB
	workspaceID uuid.UUID
}

// GetTenantScope returns the connection already held in ctx, if any.
func GetTenantScope(ctx context.Context) (*TenantScope, bool) {
	scope, ok := ctx.Value(tenantScopeKey).(*TenantScope)
	return scope, ok
}

// SetTenantScope stores an acquired connection in ctx. The caller owns it.
func SetTenantScope(ctx context.Context, scope *TenantScope) context.Context {
	return context.WithValue(ctx, tenantScopeKey, scope)
}

// BindTenant records the workspace for later connection acquisition.
func BindTenant(ctx context.Context, db *DB, workspaceID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantBindingKey, tenantBinding{db: db, workspaceID: workspaceID})
}

// Acquire returns the connection a repository call should run on and a
// release func to call when the call is done. A scope already held in ctx
// is reused and left open; otherwise a connection is acquired from the
// workspace binding and released by the returned func.
func Acquire(ctx context.Context) (*TenantScope, func(), error) {
	if scope, ok := GetTenantScope(ctx); ok && scope != nil {
		return scope, func() {}, nil
	}

	binding, ok := ctx.Value(tenantBindingKey).(tenantBinding)
	if !ok || binding.db == nil {
		return nil, nil, ErrNoTenantScope
	}

	scope, err := binding.db.WithTenant(ctx, binding.workspaceID)
	if err != nil {
		return nil, nil, err
	}
	return scope, scope.Close, nil
}
