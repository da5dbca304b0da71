package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/logging"
)

// Compile-time check
var _ OrganizationUseCase = (*orgUC)(nil)

type InviteInput struct {
	Name     string
	Email    string
	Password string
}

type OrganizationUseCase interface {
	Get(ctx context.Context, caller model.Caller, orgID string) (*model.Organization, error)
	ListUsers(ctx context.Context, caller model.Caller, orgID string) ([]*model.User, error)
	Invite(ctx context.Context, caller model.Caller, orgID string, in InviteInput) (*model.User, error)
}

type orgUC struct {
	orgs  repository.OrganizationRepository
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewOrganizationUseCase(orgs repository.OrganizationRepository, users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *orgUC {
	return &orgUC{orgs: orgs, users: users, tm: tm, log: logger}
}

func (o *orgUC) Get(ctx context.Context, caller model.Caller, orgID string) (*model.Organization, error) {
	if caller.IsZero() {
		return nil, domain.ErrForbidden
	}
	return o.orgs.FindByID(ctx, nil, orgID)
}

func (o *orgUC) ListUsers(ctx context.Context, caller model.Caller, orgID string) ([]*model.User, error) {
	if _, err := o.orgs.FindByID(ctx, nil, orgID); err != nil {
		return nil, err
	}
	if caller.OrganizationID != orgID {
		return nil, domain.ErrForbidden
	}
	return o.users.ListByOrganization(ctx, nil, orgID)
}

// Invite creates a member account in orgID. Only the organization owner may invite.
func (o *orgUC) Invite(ctx context.Context, caller model.Caller, orgID string, in InviteInput) (*model.User, error) {
	defer logging.TraceDuration(o.log, "OrgUC.Invite")()

	if !caller.IsOrgOwner || caller.OrganizationID != orgID {
		return nil, domain.ErrForbidden
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", in.Name, in.Email, hash)
	if err != nil {
		return nil, err
	}
	user.OrganizationID = orgID

	err = o.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := o.orgs.FindByID(ctx, tx, orgID); err != nil {
			return err
		}
		if _, err := o.users.FindByEmail(ctx, tx, user.Email); err == nil {
			return domain.ErrAlreadyExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return o.users.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	logging.With(ctx, o.log).Info().Str("org_id", orgID).Str("user_id", user.ID).Msg("user invited")
	return user, nil
}
