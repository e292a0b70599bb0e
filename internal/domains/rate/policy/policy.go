package policy

//go:generate go run go.uber.org/mock/mockgen -source=./policy.go -destination=../mocks/policy_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"lodge/config"
	"lodge/infras/otel"
	"lodge/infras/s3"
	rateModel "lodge/internal/domains/rate/model"
	"lodge/shared/constant"
)

const (
	SourceFile = "file"
	SourceS3   = "s3"
)

// Provider hands out the current policy snapshot. Snapshots are immutable;
// a refresh swaps the pointer so in-flight quotes keep the document they
// started with.
type Provider interface {
	Policy(ctx context.Context) (*rateModel.Policy, error)
}

type providerImpl struct {
	cfg      *config.Config
	s3Client s3.S3
	otel     otel.Otel

	snapshot atomic.Pointer[rateModel.Policy]
	loadedAt atomic.Int64

	mu sync.Mutex
}

func New(cfg *config.Config, s3Client s3.S3, otel otel.Otel) Provider {
	return &providerImpl{
		cfg:      cfg,
		s3Client: s3Client,
		otel:     otel,
	}
}

func (p *providerImpl) Policy(ctx context.Context) (policy *rateModel.Policy, err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".ratePolicy.Policy")
	defer scope.End()
	defer scope.TraceIfError(err)

	if snapshot := p.snapshot.Load(); snapshot != nil && !p.expired() {
		return snapshot, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if snapshot := p.snapshot.Load(); snapshot != nil && !p.expired() {
		return snapshot, nil
	}

	fresh, err := p.load(ctx)
	if err != nil {
		// A stale snapshot beats failing every quote.
		if stale := p.snapshot.Load(); stale != nil {
			log.Warn().Err(err).Msg("failed to refresh rate policy, serving stale snapshot")

			return stale, nil
		}

		return nil, err
	}

	p.snapshot.Store(fresh)
	p.loadedAt.Store(time.Now().Unix())

	log.Info().
		Str("source", p.cfg.RatePolicy.Source).
		Int("plans", len(fresh.Plans)).
		Int("promos", len(fresh.Promos)).
		Msg("rate policy snapshot refreshed")

	return fresh, nil
}

func (p *providerImpl) expired() bool {
	ttl := p.cfg.RatePolicy.RefreshSeconds
	if ttl <= 0 {
		ttl = 60
	}

	return time.Now().Unix()-p.loadedAt.Load() >= int64(ttl)
}

func (p *providerImpl) load(ctx context.Context) (*rateModel.Policy, error) {
	var (
		raw []byte
		err error
	)

	switch p.cfg.RatePolicy.Source {
	case SourceS3:
		raw, err = p.s3Client.FetchObject(ctx, p.cfg.RatePolicy.S3.Bucket, p.cfg.RatePolicy.S3.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch policy document from S3: %w", err)
		}
	default:
		raw, err = os.ReadFile(p.cfg.RatePolicy.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy document %s: %w", p.cfg.RatePolicy.Path, err)
		}
	}

	policy := &rateModel.Policy{}
	if err := json.Unmarshal(raw, policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}

	return policy, nil
}
