package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/metrics"
)

// Sealer encrypts stashed audio at rest. *security.EncryptionService satisfies it.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(data []byte) ([]byte, error)
}

var _ repository.AudioStash = (*AudioStash)(nil)

type AudioStash struct {
	cli    RedisClient
	ttl    time.Duration
	sealer Sealer
}

// NewAudioStash returns a stash; sealer may be nil to store audio as-is.
func NewAudioStash(cli RedisClient, ttl time.Duration, sealer Sealer) *AudioStash {
	return &AudioStash{cli: cli, ttl: ttl, sealer: sealer}
}

func audioKey(requestID string) string { return "audio:" + requestID }

func (s *AudioStash) Put(ctx context.Context, requestID string, audio []byte) error {
	payload := audio
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(audio)
		if err != nil {
			metrics.IncStashRequest("put", "error")
			return fmt.Errorf("seal audio: %w", err)
		}
		payload = sealed
	}
	if err := s.cli.Set(ctx, audioKey(requestID), payload, s.ttl); err != nil {
		metrics.IncStashRequest("put", "error")
		return fmt.Errorf("stash audio: %w", err)
	}
	metrics.IncStashRequest("put", "ok")
	return nil
}

func (s *AudioStash) Get(ctx context.Context, requestID string) ([]byte, error) {
	val, err := s.cli.Get(ctx, audioKey(requestID))
	if errors.Is(err, redis.Nil) {
		metrics.IncStashRequest("get", "miss")
		return nil, domain.ErrNotFound
	}
	if err != nil {
		metrics.IncStashRequest("get", "error")
		return nil, fmt.Errorf("read stashed audio: %w", err)
	}
	payload := []byte(val)
	if s.sealer != nil {
		if payload, err = s.sealer.Open(payload); err != nil {
			metrics.IncStashRequest("get", "error")
			return nil, fmt.Errorf("open stashed audio: %w", err)
		}
	}
	metrics.IncStashRequest("get", "hit")
	return payload, nil
}

func (s *AudioStash) Delete(ctx context.Context, requestID string) error {
	if err := s.cli.Del(ctx, audioKey(requestID)); err != nil {
		return fmt.Errorf("drop stashed audio: %w", err)
	}
	return nil
}
