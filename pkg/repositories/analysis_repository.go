package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/database"
	"github.com/gipoly/gipoly-engine/pkg/models"
)

// AnalysisRepository stores tool request/response pairs per workspace.
type AnalysisRepository interface {
	// CreateWithinLimit inserts the analysis unless the workspace already has
	// limit or more analyses for the tool, in which case it returns
	// apperrors.ErrLimitExceeded. The count and insert happen in one
	// transaction under a per-(workspace, tool) advisory lock.
	CreateWithinLimit(ctx context.Context, analysis *models.StoredAnalysis, limit int) error
	CountByWorkspace(ctx context.Context, workspaceID uuid.UUID, tool models.ToolKind) (int, error)
	// ListByWorkspace returns the analyses of a tool, newest first.
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, tool models.ToolKind) ([]*models.StoredAnalysis, error)
	GetByID(ctx context.Context, id, workspaceID uuid.UUID, tool models.ToolKind) (*models.StoredAnalysis, error)
	Delete(ctx context.Context, id, workspaceID uuid.UUID, tool models.ToolKind) error
}

type analysisRepository struct{}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository() AnalysisRepository {
	return &analysisRepository{}
}

var _ AnalysisRepository = (*analysisRepository)(nil)

const analysisColumns = `id, workspace_id, user_id, tool, analysis_type, request_data, response_data, created_at`

func (r *analysisRepository) CreateWithinLimit(ctx context.Context, analysis *models.StoredAnalysis, limit int) error {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Serializes concurrent creates for the same workspace and tool until commit.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`,
		analysis.WorkspaceID.String()+":"+string(analysis.Tool))
	if err != nil {
		return fmt.Errorf("failed to lock workspace quota: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM analyses WHERE workspace_id = $1 AND tool = $2`,
		analysis.WorkspaceID, analysis.Tool).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count analyses: %w", err)
	}

	if count >= limit {
		err = apperrors.ErrLimitExceeded
		return err
	}

	query := `
		INSERT INTO analyses (id, workspace_id, user_id, tool, analysis_type, request_data, response_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = tx.QueryRow(ctx, query,
		analysis.ID,
		analysis.WorkspaceID,
		analysis.UserID,
		analysis.Tool,
		analysis.AnalysisType,
		[]byte(analysis.RequestData),
		[]byte(analysis.ResponseData),
	).Scan(&analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *analysisRepository) CountByWorkspace(ctx context.Context, workspaceID uuid.UUID, tool models.ToolKind) (int, error) {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	var count int
	err = scope.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM analyses WHERE workspace_id = $1 AND tool = $2`,
		workspaceID, tool).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

func (r *analysisRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, tool models.ToolKind) ([]*models.StoredAnalysis, error) {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE workspace_id = $1 AND tool = $2
		ORDER BY created_at DESC, id`

	rows, err := scope.Conn.Query(ctx, query, workspaceID, tool)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := make([]*models.StoredAnalysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return analyses, nil
}

func (r *analysisRepository) GetByID(ctx context.Context, id, workspaceID uuid.UUID, tool models.ToolKind) (*models.StoredAnalysis, error) {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		SELECT ` + analysisColumns + `
		FROM analyses
		WHERE id = $1 AND workspace_id = $2 AND tool = $3`

	a, err := scanAnalysis(scope.Conn.QueryRow(ctx, query, id, workspaceID, tool))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

func (r *analysisRepository) Delete(ctx context.Context, id, workspaceID uuid.UUID, tool models.ToolKind) error {
	scope, release, err := database.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	result, err := scope.Conn.Exec(ctx,
		`DELETE FROM analyses WHERE id = $1 AND workspace_id = $2 AND tool = $3`,
		id, workspaceID, tool)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanAnalysis(row pgx.Row) (*models.StoredAnalysis, error) {
	var a models.StoredAnalysis
	var requestData, responseData []byte
	err := row.Scan(
		&a.ID,
		&a.WorkspaceID,
		&a.UserID,
		&a.Tool,
		&a.AnalysisType,
		&requestData,
		&responseData,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.RequestData = requestData
	a.ResponseData = responseData
	return &a, nil
}
