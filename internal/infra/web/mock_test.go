//go:build !integration

package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// ---- mock TranscriptionUseCase ----

type mockTranscriptionUC struct {
	lastCaller model.Caller
	lastInput  usecase.SubmitInput
	lastLimit  int
	lastOffset int

	submitID  string
	submitErr error
	status    model.RequestStatus
	view      *usecase.RequestView
	list      []*usecase.RequestView
	err       error // returned by reads and deletes
}

func (m *mockTranscriptionUC) Submit(ctx context.Context, caller model.Caller, in usecase.SubmitInput) (string, error) {
	m.lastCaller = caller
	m.lastInput = in
	return m.submitID, m.submitErr
}

func (m *mockTranscriptionUC) Process(ctx context.Context, job usecase.Job) error { return nil }

func (m *mockTranscriptionUC) GetStatus(ctx context.Context, caller model.Caller, id string) (model.RequestStatus, error) {
	m.lastCaller = caller
	return m.status, m.err
}

func (m *mockTranscriptionUC) GetResult(ctx context.Context, caller model.Caller, id string) (*usecase.RequestView, error) {
	m.lastCaller = caller
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *mockTranscriptionUC) SoftDelete(ctx context.Context, caller model.Caller, id string) error {
	m.lastCaller = caller
	return m.err
}

func (m *mockTranscriptionUC) List(ctx context.Context, caller model.Caller, limit, offset int) (*usecase.RequestPage, error) {
	m.lastCaller = caller
	m.lastLimit, m.lastOffset = limit, offset
	if m.err != nil {
		return nil, m.err
	}
	applied := limit
	if applied <= 0 {
		applied = 20
	}
	return &usecase.RequestPage{Items: m.list, Limit: applied, Offset: offset}, nil
}

func (m *mockTranscriptionUC) ReconcileStale(ctx context.Context, staleAfter time.Duration, batch int) (usecase.ReconcileReport, error) {
	return usecase.ReconcileReport{}, nil
}

// ---- mock AuthUseCase ----

type mockAuthUC struct {
	users    map[string]*model.User // by id
	orgs     map[string]*model.Organization
	signup   error
	lastIn   usecase.SignupInput
	password string
}

func newMockAuthUC(users ...*model.User) *mockAuthUC {
	m := &mockAuthUC{users: map[string]*model.User{}, orgs: map[string]*model.Organization{}, password: "correct horse"}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthUC) Signup(ctx context.Context, in usecase.SignupInput) (*model.User, error) {
	m.lastIn = in
	if m.signup != nil {
		return nil, m.signup
	}
	u := &model.User{ID: "new-user", Name: in.Name, Email: in.Email}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockAuthUC) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email && password == m.password {
			return u, nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *mockAuthUC) Me(ctx context.Context, userID string) (*usecase.Profile, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &usecase.Profile{User: u, Organization: m.orgs[u.OrganizationID]}, nil
}

func (m *mockAuthUC) Identify(ctx context.Context, userID string) (model.Caller, error) {
	u, ok := m.users[userID]
	if !ok {
		return model.Caller{}, domain.ErrNotFound
	}
	return u.Caller(), nil
}

// ---- mock OrganizationUseCase ----

type mockOrgUC struct {
	org     *model.Organization
	users   []*model.User
	err     error
	lastOrg string
	lastIn  usecase.InviteInput
}

func (m *mockOrgUC) Get(ctx context.Context, caller model.Caller, orgID string) (*model.Organization, error) {
	m.lastOrg = orgID
	return m.org, m.err
}

func (m *mockOrgUC) ListUsers(ctx context.Context, caller model.Caller, orgID string) ([]*model.User, error) {
	m.lastOrg = orgID
	return m.users, m.err
}

func (m *mockOrgUC) Invite(ctx context.Context, caller model.Caller, orgID string, in usecase.InviteInput) (*model.User, error) {
	m.lastOrg = orgID
	m.lastIn = in
	if m.err != nil {
		return nil, m.err
	}
	return &model.User{ID: "invited", Name: in.Name, Email: in.Email, OrganizationID: orgID}, nil
}

// ---- fixture ----

const testSecret = "test-jwt-secret-please-change"

var (
	alice = &model.User{ID: "user-alice", Name: "Alice", Email: "alice@acme.io", OrganizationID: "org-acme"}
	olga  = &model.User{ID: "user-olga", Name: "Olga", Email: "olga@acme.io", OrganizationID: "org-acme", IsOrgOwner: true}
)

type testEnv struct {
	tuc    *mockTranscriptionUC
	auc    *mockAuthUC
	ouc    *mockOrgUC
	tokens *AuthManager
	srv    *Server
}

func newTestEnv(opts Options) *testEnv {
	env := &testEnv{
		tuc:    &mockTranscriptionUC{},
		auc:    newMockAuthUC(alice, olga),
		ouc:    &mockOrgUC{},
		tokens: NewAuthManager(testSecret, time.Hour),
	}
	env.srv = NewServer(env.tuc, env.auc, env.ouc, env.tokens, opts, newTestLogger())
	return env
}

func (e *testEnv) bearer(u *model.User) string {
	tok, err := e.tokens.Mint(u.ID, u.Email)
	if err != nil {
		panic(err)
	}
	return "Bearer " + tok
}
