package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// workspaceSetting is the session variable the RLS policies read.
const workspaceSetting = "app.current_workspace_id"

// TenantScope is a pooled connection bound to one workspace for RLS, or
// unbound (WorkspaceID == uuid.Nil) for lookups that precede workspace
// resolution. Close must be called exactly once.
type TenantScope struct {
	Conn        *pgxpool.Conn
	WorkspaceID uuid.UUID
}

// Close clears the workspace binding and returns the connection to the pool.
// The reset runs on a fresh context so a cancelled request cannot leave a
// bound connection behind.
func (s *TenantScope) Close() {
	if s == nil || s.Conn == nil {
		return
	}
	if s.WorkspaceID != uuid.Nil {
		if _, err := s.Conn.Exec(context.Background(), "RESET "+workspaceSetting); err != nil {
			// The session state is unknown; drop the connection instead of reusing it.
			_ = s.Conn.Conn().Close(context.Background())
		}
	}
	s.Conn.Release()
	s.Conn = nil
}

// WithTenant acquires a connection bound to workspaceID.
func (db *DB) WithTenant(ctx context.Context, workspaceID uuid.UUID) (*TenantScope, error) {
	if workspaceID == uuid.Nil {
		return nil, fmt.Errorf("tenant scope requires a workspace id")
	}
	return db.acquire(ctx, workspaceID)
}

// WithoutTenant acquires an unbound connection, used for slug resolution
// and membership checks.
func (db *DB) WithoutTenant(ctx context.Context) (*TenantScope, error) {
	return db.acquire(ctx, uuid.Nil)
}

func (db *DB) acquire(ctx context.Context, workspaceID uuid.UUID) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if workspaceID != uuid.Nil {
		if _, err := conn.Exec(ctx, "SELECT set_config($1, $2, false)", workspaceSetting, workspaceID.String()); err != nil {
			conn.Release()
			return nil, fmt.Errorf("bind workspace %s: %w", workspaceID, err)
		}
	}

	return &TenantScope{Conn: conn, WorkspaceID: workspaceID}, nil
}
