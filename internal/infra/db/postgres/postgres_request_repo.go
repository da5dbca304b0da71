package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/repository"
)

var _ repository.TranscriptionRequestRepository = (*requestRepo)(nil)

const requestColumns = `request_id, filename, language, transcript, result, error, status, created_by, organization_id, created_at, updated_at`

type requestRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptionRequestRepo(pool *pgxpool.Pool) *requestRepo {
	return &requestRepo{pool: pool}
}

func (r *requestRepo) Create(ctx context.Context, tx repository.Tx, req *model.TranscriptionRequest) error {
	const q = `
INSERT INTO transcription_requests (request_id, filename, language, status, created_by, organization_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := execSQL(ctx, r.pool, tx, q,
		req.ID, req.Filename, req.Language, string(req.Status), req.CreatedBy, nullable(req.OrganizationID), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert transcription request: %w", err)
	}
	return nil
}

func (r *requestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TranscriptionRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + requestColumns + ` FROM transcription_requests WHERE request_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanRequest(row)
}

func (r *requestRepo) ClaimPending(ctx context.Context, tx repository.Tx, id string) (*model.TranscriptionRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `
UPDATE transcription_requests
   SET status='processing', updated_at=now()
 WHERE request_id=$1 AND status='pending'
RETURNING ` + requestColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanRequest(row)
}

func (r *requestRepo) SaveTranscript(ctx context.Context, tx repository.Tx, id, transcript string) error {
	const q = `
UPDATE transcription_requests
   SET transcript=$2, updated_at=now()
 WHERE request_id=$1 AND status='processing';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, transcript)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *requestRepo) Finish(ctx context.Context, tx repository.Tx, id string, outcome model.Outcome) error {
	var (
		q    string
		args []interface{}
	)
	if ev, ok := outcome.Evaluation(); ok {
		b, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode evaluation: %w", err)
		}
		q = `
UPDATE transcription_requests
   SET status='done', result=$2::jsonb, error=NULL, updated_at=now()
 WHERE request_id=$1 AND status='processing';`
		args = []interface{}{id, string(b)}
	} else if msg, ok := outcome.Failure(); ok {
		q = `
UPDATE transcription_requests
   SET status='error', result=NULL, error=$2, updated_at=now()
 WHERE request_id=$1 AND status='processing';`
		args = []interface{}{id, msg}
	} else {
		return domain.ErrInvalidArgument
	}

	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		return fmt.Errorf("finish request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *requestRepo) MarkDeleted(ctx context.Context, tx repository.Tx, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	const q = `UPDATE transcription_requests SET status='deleted', updated_at=now() WHERE request_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *requestRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM transcription_requests WHERE request_id=$1;`, id)
	return err
}

func (r *requestRepo) List(ctx context.Context, tx repository.Tx, f repository.ListFilter) ([]*model.TranscriptionRequest, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var (
		q    = `SELECT ` + requestColumns + ` FROM transcription_requests WHERE status <> 'deleted'`
		args []interface{}
	)
	switch {
	case f.OrganizationID != "":
		q += ` AND organization_id=$1`
		args = append(args, f.OrganizationID)
	case f.CreatedBy != "":
		q += ` AND created_by=$1`
		args = append(args, f.CreatedBy)
	default:
		return nil, domain.ErrInvalidArgument
	}
	q += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3;`
	args = append(args, f.Limit, f.Offset)

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *requestRepo) ListStale(ctx context.Context, tx repository.Tx, status model.RequestStatus, updatedBefore time.Time, limit int) ([]*model.TranscriptionRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + requestColumns + `
  FROM transcription_requests
 WHERE status=$1 AND updated_at < $2
 ORDER BY updated_at
 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, string(status), updatedBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*model.TranscriptionRequest, error) {
	var (
		req       model.TranscriptionRequest
		result    []byte
		errMsg    *string
		status    string
		orgID     *string
		updatedAt *time.Time
	)
	err := row.Scan(
		&req.ID, &req.Filename, &req.Language, &req.Transcript, &result, &errMsg,
		&status, &req.CreatedBy, &orgID, &req.CreatedAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	req.Status = model.RequestStatus(status)
	req.OrganizationID = deref(orgID)
	if updatedAt != nil {
		req.UpdatedAt = *updatedAt
	}

	switch {
	case result != nil:
		ev, err := model.ParseEvaluation(result)
		if err != nil {
			return nil, fmt.Errorf("%w: stored result: %v", domain.ErrReadDatabaseRow, err)
		}
		req.Outcome = model.Succeeded(ev)
	case errMsg != nil:
		req.Outcome = model.Failed(*errMsg)
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]*model.TranscriptionRequest, error) {
	var out []*model.TranscriptionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
