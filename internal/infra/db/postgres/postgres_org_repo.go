package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/repository"
)

var _ repository.OrganizationRepository = (*orgRepo)(nil)

type orgRepo struct{ pool *pgxpool.Pool }

func NewOrganizationRepo(pool *pgxpool.Pool) *orgRepo {
	return &orgRepo{pool: pool}
}

func (r *orgRepo) Save(ctx context.Context, tx repository.Tx, org *model.Organization) error {
	const q = `
INSERT INTO organizations (id, name, owner_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=$2, owner_id=$3;`
	if _, err := execSQL(ctx, r.pool, tx, q, org.ID, org.Name, nullable(org.OwnerID), org.CreatedAt); err != nil {
		return fmt.Errorf("save organization: %w", err)
	}
	return nil
}

func (r *orgRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, name, owner_id, created_at FROM organizations WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var (
		org     model.Organization
		ownerID *string
	)
	if err := row.Scan(&org.ID, &org.Name, &ownerID, &org.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	org.OwnerID = deref(ownerID)
	return &org, nil
}
