//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/worker"
)

// =============================
// Repositories
// =============================

// ---- In-memory TranscriptionRequestRepository ----

// MockRequestRepo mirrors the conditional updates of the Postgres store.
type MockRequestRepo struct {
	mu   sync.Mutex
	rows map[string]model.TranscriptionRequest

	// BeforeFinish runs just before a terminal commit is applied.
	BeforeFinish func(id string)
	FinishCalls  int
	CreateErr    error
}

func NewMockRequestRepo() *MockRequestRepo {
	return &MockRequestRepo{rows: map[string]model.TranscriptionRequest{}}
}

var _ repository.TranscriptionRequestRepository = (*MockRequestRepo)(nil)

func (m *MockRequestRepo) Create(ctx context.Context, tx repository.Tx, req *model.TranscriptionRequest) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[req.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.rows[req.ID] = *req
	return nil
}

func (m *MockRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TranscriptionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MockRequestRepo) ClaimPending(ctx context.Context, tx repository.Tx, id string) (*model.TranscriptionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != model.RequestStatusPending {
		return nil, domain.ErrNotFound
	}
	r.Status = model.RequestStatusProcessing
	r.UpdatedAt = time.Now()
	m.rows[id] = r
	return &r, nil
}

func (m *MockRequestRepo) SaveTranscript(ctx context.Context, tx repository.Tx, id, transcript string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != model.RequestStatusProcessing {
		return domain.ErrInvalidTransition
	}
	r.Transcript = &transcript
	m.rows[id] = r
	return nil
}

func (m *MockRequestRepo) Finish(ctx context.Context, tx repository.Tx, id string, outcome model.Outcome) error {
	if m.BeforeFinish != nil {
		m.BeforeFinish(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if outcome.IsZero() {
		return domain.ErrInvalidArgument
	}
	r, ok := m.rows[id]
	if !ok || r.Status != model.RequestStatusProcessing {
		return domain.ErrInvalidTransition
	}
	m.FinishCalls++
	r.Status = outcome.Status()
	r.Outcome = outcome
	r.UpdatedAt = time.Now()
	m.rows[id] = r
	return nil
}

func (m *MockRequestRepo) MarkDeleted(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = model.RequestStatusDeleted
	m.rows[id] = r
	return nil
}

func (m *MockRequestRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *MockRequestRepo) List(ctx context.Context, tx repository.Tx, f repository.ListFilter) ([]*model.TranscriptionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TranscriptionRequest
	for _, r := range m.rows {
		r := r
		if r.Status == model.RequestStatusDeleted {
			continue
		}
		if f.OrganizationID != "" {
			if r.OrganizationID != f.OrganizationID {
				continue
			}
		} else if r.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MockRequestRepo) ListStale(ctx context.Context, tx repository.Tx, status model.RequestStatus, updatedBefore time.Time, limit int) ([]*model.TranscriptionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TranscriptionRequest
	for _, r := range m.rows {
		r := r
		if r.Status == status && r.UpdatedAt.Before(updatedBefore) {
			out = append(out, &r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Row returns a copy of the stored row, for assertions.
func (m *MockRequestRepo) Row(id string) (model.TranscriptionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok
}

// Age moves the row's timestamps into the past.
func (m *MockRequestRepo) Age(id string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rows[id]
	r.CreatedAt = r.CreatedAt.Add(-d)
	r.UpdatedAt = r.UpdatedAt.Add(-d)
	m.rows[id] = r
}

// ---- In-memory AudioStash ----

type MockStash struct {
	mu     sync.Mutex
	data   map[string][]byte
	PutErr error
}

func NewMockStash() *MockStash { return &MockStash{data: map[string][]byte{}} }

var _ repository.AudioStash = (*MockStash)(nil)

func (s *MockStash) Put(ctx context.Context, id string, audio []byte) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = append([]byte(nil), audio...)
	return nil
}

func (s *MockStash) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (s *MockStash) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MockStash) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[id]
	return ok
}

// ---- In-memory UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewMockUserRepo() *MockUserRepo { return &MockUserRepo{users: map[string]model.User{}} }

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrAlreadyExists
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) ListByOrganization(ctx context.Context, tx repository.Tx, orgID string) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.users {
		if u.OrganizationID == orgID {
			u := u
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// ---- In-memory OrganizationRepository ----

type MockOrgRepo struct {
	mu   sync.Mutex
	orgs map[string]model.Organization
}

func NewMockOrgRepo() *MockOrgRepo { return &MockOrgRepo{orgs: map[string]model.Organization{}} }

var _ repository.OrganizationRepository = (*MockOrgRepo)(nil)

func (m *MockOrgRepo) Save(ctx context.Context, tx repository.Tx, org *model.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs[org.ID] = *org
	return nil
}

func (m *MockOrgRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

// =============================
// Adapters
// =============================

type MockTranscriber struct {
	mu    sync.Mutex
	Calls int

	TranscribeFunc func(ctx context.Context, in adapter.TranscribeInput) (string, error)
}

var _ adapter.Transcriber = (*MockTranscriber)(nil)

func (m *MockTranscriber) Name() string { return "mock-stt" }

func (m *MockTranscriber) Transcribe(ctx context.Context, in adapter.TranscribeInput) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, in)
	}
	return "transcript of " + in.Filename, nil
}

type MockReviewer struct {
	mu    sync.Mutex
	Calls int
	Last  adapter.ReviewInput

	ReviewFunc func(ctx context.Context, in adapter.ReviewInput) (model.Evaluation, error)
}

var _ adapter.Reviewer = (*MockReviewer)(nil)

func (m *MockReviewer) Name() string { return "mock-llm" }

func (m *MockReviewer) Review(ctx context.Context, in adapter.ReviewInput) (model.Evaluation, error) {
	m.mu.Lock()
	m.Calls++
	m.Last = in
	m.mu.Unlock()
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, in)
	}
	return sampleEvaluation(), nil
}

func (m *MockReviewer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// =============================
// Infra helpers for tests
// =============================

// ---- Dispatchers ----

// SyncDispatcher runs every task inline, so Submit returns after processing.
type SyncDispatcher struct{}

func (SyncDispatcher) Submit(task worker.Task) error { return task(context.Background()) }

// QueueDispatcher holds tasks until Drain is called.
type QueueDispatcher struct {
	mu    sync.Mutex
	tasks []worker.Task
}

func (q *QueueDispatcher) Submit(task worker.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *QueueDispatcher) Drain() {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, t := range tasks {
		_ = t(context.Background())
	}
}

func (q *QueueDispatcher) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// FullDispatcher rejects everything, like a saturated pool.
type FullDispatcher struct{}

func (FullDispatcher) Submit(task worker.Task) error { return worker.ErrQueueFull }

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Fixtures
// =============================

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func sampleEvaluation() model.Evaluation {
	c := func(r int) model.CriterionReview {
		return model.CriterionReview{Rating: r, WhatWasDoneWell: "good", SuggestionsForImprovement: "better"}
	}
	return model.Evaluation{
		StartOfConversation:           c(4),
		PitchingOfProduct:             c(3),
		UnderstandingCustomerProblem:  c(5),
		CollectingRequiredInformation: c(2),
		EndingTheCall:                 c(4),
	}
}

var (
	alice    = model.Caller{UserID: "user-alice", OrganizationID: "org-acme"}
	bob      = model.Caller{UserID: "user-bob", OrganizationID: "org-acme"}
	owner    = model.Caller{UserID: "user-owner", OrganizationID: "org-acme", IsOrgOwner: true}
	outsider = model.Caller{UserID: "user-eve", OrganizationID: "org-other", IsOrgOwner: true}
)

var errProvider = errors.New("provider exploded")

func contains(s, sub string) bool { return strings.Contains(s, sub) }
