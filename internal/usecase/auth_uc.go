package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/logging"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

type SignupInput struct {
	Name             string
	Email            string
	Password         string
	OrganizationName string // when set, a new organization owned by the user is created
}

// Profile is the signed-in user together with their organization, if any.
type Profile struct {
	User         *model.User
	Organization *model.Organization
}

type AuthUseCase interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	Me(ctx context.Context, userID string) (*Profile, error)
	// Identify resolves a token subject to the caller used for authorization.
	Identify(ctx context.Context, userID string) (model.Caller, error)
}

type authUC struct {
	users repository.UserRepository
	orgs  repository.OrganizationRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewAuthUseCase(users repository.UserRepository, orgs repository.OrganizationRepository, tm repository.TransactionManager, logger *zerolog.Logger) *authUC {
	return &authUC{users: users, orgs: orgs, tm: tm, log: logger}
}

var passwordCost = bcrypt.DefaultCost

// hashPassword enforces the password policy and returns a bcrypt hash.
func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return "", fmt.Errorf("%w: password must be %d to %d bytes", domain.ErrInvalidArgument, minPasswordLen, maxPasswordLen)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (a *authUC) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	defer logging.TraceDuration(a.log, "AuthUC.Signup")()

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", in.Name, in.Email, hash)
	if err != nil {
		return nil, err
	}

	err = a.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := a.users.FindByEmail(ctx, tx, user.Email); err == nil {
			return domain.ErrAlreadyExists
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if name := strings.TrimSpace(in.OrganizationName); name != "" {
			org, err := model.NewOrganization(name)
			if err != nil {
				return err
			}
			if err := a.orgs.Save(ctx, tx, org); err != nil {
				return err
			}
			user.OrganizationID = org.ID
			user.IsOrgOwner = true
			if err := a.users.Save(ctx, tx, user); err != nil {
				return err
			}
			org.OwnerID = user.ID
			return a.orgs.Save(ctx, tx, org)
		}
		return a.users.Save(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	logging.With(ctx, a.log).Info().
		Str("user_id", user.ID).
		Str("email", logging.Redact(user.Email, false)).
		Bool("org_owner", user.IsOrgOwner).
		Msg("user signed up")
	return user, nil
}

func (a *authUC) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email, err := model.NormalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := a.users.FindByEmail(ctx, nil, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (a *authUC) Me(ctx context.Context, userID string) (*Profile, error) {
	user, err := a.users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: user}
	if user.OrganizationID != "" {
		org, err := a.orgs.FindByID(ctx, nil, user.OrganizationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		p.Organization = org
	}
	return p, nil
}

func (a *authUC) Identify(ctx context.Context, userID string) (model.Caller, error) {
	user, err := a.users.FindByID(ctx, nil, userID)
	if err != nil {
		return model.Caller{}, err
	}
	return user.Caller(), nil
}
