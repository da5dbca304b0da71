package repository

import (
	"context"

	"voice-analytics/internal/domain/model"
)

type OrganizationRepository interface {
	Save(ctx context.Context, tx Tx, org *model.Organization) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Organization, error)
}
