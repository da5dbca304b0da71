package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/logging"
	"voice-analytics/internal/infra/metrics"
	"voice-analytics/internal/infra/worker"
)

// Compile-time check
var _ TranscriptionUseCase = (*transcriptionUC)(nil)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	msgAudioUnavailable      = "audio no longer available"
	msgProcessingInterrupted = "processing interrupted"
)

// Dispatcher runs background units without blocking the caller.
// *worker.Pool satisfies it.
type Dispatcher interface {
	Submit(task worker.Task) error
}

type SubmitInput struct {
	Filename string
	Audio    []byte
	Language string
}

// Job is everything a background unit needs; it never reads the audio back
// from the store.
type Job struct {
	RequestID string
	Filename  string
	Audio     []byte
	Language  string
	TraceID   string // correlation id of the submitting HTTP request, if any
}

// RequestView is what callers may see of a request. Evaluation is set only
// when Status is done, Error only when Status is error.
type RequestView struct {
	RequestID  string
	Filename   string
	Language   string
	Status     model.RequestStatus
	Evaluation *model.Evaluation
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RequestPage is one page of List results with the paging that was applied.
type RequestPage struct {
	Items  []*RequestView
	Limit  int
	Offset int
}

type ReconcileReport struct {
	Requeued int
	Failed   int
}

type TranscriptionUseCase interface {
	Submit(ctx context.Context, caller model.Caller, in SubmitInput) (string, error)
	Process(ctx context.Context, job Job) error
	GetStatus(ctx context.Context, caller model.Caller, id string) (model.RequestStatus, error)
	GetResult(ctx context.Context, caller model.Caller, id string) (*RequestView, error)
	SoftDelete(ctx context.Context, caller model.Caller, id string) error
	List(ctx context.Context, caller model.Caller, limit, offset int) (*RequestPage, error)
	ReconcileStale(ctx context.Context, staleAfter time.Duration, batch int) (ReconcileReport, error)
}

type transcriptionUC struct {
	requests    repository.TranscriptionRequestRepository
	stash       repository.AudioStash // optional
	tm          repository.TransactionManager
	transcriber adapter.Transcriber
	reviewer    adapter.Reviewer
	dispatcher  Dispatcher
	log         *zerolog.Logger
}

func NewTranscriptionUseCase(
	requests repository.TranscriptionRequestRepository,
	stash repository.AudioStash,
	tm repository.TransactionManager,
	transcriber adapter.Transcriber,
	reviewer adapter.Reviewer,
	dispatcher Dispatcher,
	logger *zerolog.Logger,
) *transcriptionUC {
	l := logger.With().Str("component", "transcription_uc").Logger()
	return &transcriptionUC{
		requests:    requests,
		stash:       stash,
		tm:          tm,
		transcriber: transcriber,
		reviewer:    reviewer,
		dispatcher:  dispatcher,
		log:         &l,
	}
}

func (uc *transcriptionUC) Submit(ctx context.Context, caller model.Caller, in SubmitInput) (string, error) {
	defer logging.TraceDuration(uc.log, "TranscriptionUC.Submit")()

	if caller.IsZero() || len(in.Audio) == 0 {
		return "", domain.ErrInvalidArgument
	}
	req, err := model.NewTranscriptionRequest(in.Filename, in.Language, caller)
	if err != nil {
		return "", err
	}
	if err := uc.requests.Create(ctx, nil, req); err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	log := logging.With(logging.WithRequestID(ctx, req.ID), uc.log)

	if uc.stash != nil {
		if err := uc.stash.Put(ctx, req.ID, in.Audio); err != nil {
			log.Warn().Err(err).Msg("audio not stashed; request cannot be requeued after a crash")
		}
	}

	job := Job{
		RequestID: req.ID,
		Filename:  req.Filename,
		Audio:     in.Audio,
		Language:  req.Language,
		TraceID:   logging.TraceID(ctx),
	}
	if err := uc.schedule(job); err != nil {
		metrics.IncSchedulingFailure()
		log.Error().Err(err).Msg("could not schedule processing; rolling back submission")

		// the caller is told to resubmit, so nothing of this attempt may remain
		cctx := context.WithoutCancel(ctx)
		if derr := uc.requests.Delete(cctx, nil, req.ID); derr != nil {
			log.Error().Err(derr).Msg("failed to remove unscheduled request")
		}
		uc.dropAudio(cctx, req.ID)
		return "", fmt.Errorf("%w: %v", domain.ErrSchedulingFailed, err)
	}

	metrics.IncRequestSubmitted()
	log.Info().Str("filename", req.Filename).Int("bytes", len(in.Audio)).Msg("transcription request accepted")
	return req.ID, nil
}

func (uc *transcriptionUC) schedule(job Job) error {
	return uc.dispatcher.Submit(func(ctx context.Context) error {
		if job.TraceID != "" {
			ctx = logging.WithTraceID(ctx, job.TraceID)
		}
		return uc.Process(ctx, job)
	})
}

// Process runs one request through transcription and review and commits
// exactly one terminal state. It is a no-op when the request is gone or was
// already claimed.
func (uc *transcriptionUC) Process(ctx context.Context, job Job) error {
	ctx = logging.WithRequestID(context.WithoutCancel(ctx), job.RequestID)
	log := logging.With(ctx, uc.log)

	req, err := uc.requests.ClaimPending(ctx, nil, job.RequestID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Msg("request no longer pending; skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim request %s: %w", job.RequestID, err)
	}

	start := time.Now()
	outcome := uc.run(ctx, req, job, log)
	uc.finish(ctx, req.ID, outcome, log)
	uc.dropAudio(ctx, req.ID)

	log.Info().Str("status", string(outcome.Status())).Dur("duration_ms", time.Since(start)).Msg("request processed")
	return nil
}

func (uc *transcriptionUC) run(ctx context.Context, req *model.TranscriptionRequest, job Job, log *zerolog.Logger) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("processing panicked")
			out = model.Failed(fmt.Sprintf("processing failed: %v", r))
		}
	}()

	transcript, err := uc.transcriber.Transcribe(ctx, adapter.TranscribeInput{
		Audio:       job.Audio,
		Filename:    req.Filename,
		ContentType: model.AudioContentType(req.Filename),
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", uc.transcriber.Name()).Msg("transcription failed")
		return model.Failed(fmt.Sprintf("transcription failed: %v", err))
	}

	if err := uc.requests.SaveTranscript(ctx, nil, req.ID, transcript); err != nil {
		log.Warn().Err(err).Msg("could not store transcript")
		return model.Failed(fmt.Sprintf("could not store transcript: %v", err))
	}
	if strings.TrimSpace(transcript) == "" {
		return model.Failed(domain.ErrEmptyTranscript.Error())
	}

	language := job.Language
	if language == "" {
		language = req.Language
	}
	ev, err := uc.reviewer.Review(ctx, adapter.ReviewInput{Transcript: transcript, Language: language})
	if err != nil {
		log.Warn().Err(err).Str("provider", uc.reviewer.Name()).Msg("review failed")
		return model.Failed(fmt.Sprintf("review failed: %v", err))
	}
	return model.Succeeded(ev)
}

func (uc *transcriptionUC) finish(ctx context.Context, id string, outcome model.Outcome, log *zerolog.Logger) {
	err := uc.requests.Finish(ctx, nil, id, outcome)
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		// deleted or reconciled while we were working; that state wins
		log.Info().Msg("request left processing before commit; outcome discarded")
	case err != nil:
		log.Error().Err(err).Msg("failed to commit outcome")
	default:
		metrics.IncRequestFinished(string(outcome.Status()))
	}
}

func (uc *transcriptionUC) dropAudio(ctx context.Context, id string) {
	if uc.stash == nil {
		return
	}
	if err := uc.stash.Delete(ctx, id); err != nil {
		uc.log.Warn().Err(err).Str("request_id", id).Msg("failed to drop stashed audio")
	}
}

// load returns the request when caller may see it.
func (uc *transcriptionUC) load(ctx context.Context, tx repository.Tx, caller model.Caller, id string) (*model.TranscriptionRequest, error) {
	req, err := uc.requests.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !req.AccessibleBy(caller) {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

func (uc *transcriptionUC) GetStatus(ctx context.Context, caller model.Caller, id string) (model.RequestStatus, error) {
	req, err := uc.load(ctx, nil, caller, id)
	if err != nil {
		return "", err
	}
	return req.Status, nil
}

func (uc *transcriptionUC) GetResult(ctx context.Context, caller model.Caller, id string) (*RequestView, error) {
	req, err := uc.load(ctx, nil, caller, id)
	if err != nil {
		return nil, err
	}
	return viewOf(req), nil
}

func (uc *transcriptionUC) SoftDelete(ctx context.Context, caller model.Caller, id string) error {
	defer logging.TraceDuration(uc.log, "TranscriptionUC.SoftDelete")()

	var deleted bool
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		req, err := uc.load(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		if req.Status == model.RequestStatusDeleted {
			return nil
		}
		if err := uc.requests.MarkDeleted(ctx, tx, req.ID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return err
	}
	if deleted {
		uc.dropAudio(ctx, id)
		logging.With(ctx, uc.log).Info().Str("request_id", id).Msg("request deleted")
	}
	return nil
}

func (uc *transcriptionUC) List(ctx context.Context, caller model.Caller, limit, offset int) (*RequestPage, error) {
	if caller.IsZero() {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	f := repository.ListFilter{CreatedBy: caller.UserID, Limit: limit, Offset: offset}
	if caller.IsOrgOwner && caller.OrganizationID != "" {
		f.OrganizationID = caller.OrganizationID
	}
	reqs, err := uc.requests.List(ctx, nil, f)
	if err != nil {
		return nil, err
	}
	page := &RequestPage{Items: make([]*RequestView, 0, len(reqs)), Limit: limit, Offset: offset}
	for _, r := range reqs {
		page.Items = append(page.Items, viewOf(r))
	}
	return page, nil
}

// ReconcileStale settles requests that have sat in pending or processing for
// longer than staleAfter, which only happens when their unit was lost.
func (uc *transcriptionUC) ReconcileStale(ctx context.Context, staleAfter time.Duration, batch int) (ReconcileReport, error) {
	defer logging.TraceDuration(uc.log, "TranscriptionUC.ReconcileStale")()

	var report ReconcileReport
	cutoff := time.Now().Add(-staleAfter)

	pending, err := uc.requests.ListStale(ctx, nil, model.RequestStatusPending, cutoff, batch)
	if err != nil {
		return report, fmt.Errorf("list stale pending: %w", err)
	}
	for _, req := range pending {
		log := uc.log.With().Str("request_id", req.ID).Logger()

		var audio []byte
		if uc.stash != nil {
			audio, err = uc.stash.Get(ctx, req.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				log.Warn().Err(err).Msg("stash unavailable; leaving request for the next pass")
				continue
			}
		}
		if len(audio) > 0 {
			job := Job{RequestID: req.ID, Filename: req.Filename, Audio: audio, Language: req.Language}
			if err := uc.schedule(job); err != nil {
				log.Warn().Err(err).Msg("could not requeue stale request")
				continue
			}
			report.Requeued++
			metrics.IncReconcilerAction("requeued")
			log.Info().Msg("stale request requeued")
			continue
		}

		claimed, err := uc.requests.ClaimPending(ctx, nil, req.ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Msg("could not claim stale request")
			continue
		}
		if uc.failStale(ctx, claimed.ID, msgAudioUnavailable, &log) {
			report.Failed++
		}
	}

	processing, err := uc.requests.ListStale(ctx, nil, model.RequestStatusProcessing, cutoff, batch)
	if err != nil {
		return report, fmt.Errorf("list stale processing: %w", err)
	}
	for _, req := range processing {
		log := uc.log.With().Str("request_id", req.ID).Logger()
		if uc.failStale(ctx, req.ID, msgProcessingInterrupted, &log) {
			report.Failed++
		}
	}
	return report, nil
}

func (uc *transcriptionUC) failStale(ctx context.Context, id, msg string, log *zerolog.Logger) bool {
	err := uc.requests.Finish(ctx, nil, id, model.Failed(msg))
	if errors.Is(err, domain.ErrInvalidTransition) {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Msg("could not fail stale request")
		return false
	}
	metrics.IncRequestFinished(string(model.RequestStatusError))
	metrics.IncReconcilerAction("failed")
	uc.dropAudio(ctx, id)
	log.Info().Str("reason", msg).Msg("stale request failed")
	return true
}

func viewOf(r *model.TranscriptionRequest) *RequestView {
	v := &RequestView{
		RequestID: r.ID,
		Filename:  r.Filename,
		Language:  r.Language,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	switch r.Status {
	case model.RequestStatusDone:
		if ev, ok := r.Outcome.Evaluation(); ok {
			v.Evaluation = &ev
		}
	case model.RequestStatusError:
		if msg, ok := r.Outcome.Failure(); ok {
			v.Error = msg
		}
	}
	return v
}
