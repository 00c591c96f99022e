package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/slug"
)

// DefaultMaxAttempts bounds slug generation retries on collision.
const DefaultMaxAttempts = 10

var ErrMaxAttemptsExceeded = errors.New("maximum attempts exceeded for generating slug")

type linkRepository interface {
	Save(ctx context.Context, slug, destinationURL string) (*entity.Link, error)
	RetrieveBySlug(ctx context.Context, slug string) (*entity.Link, error)
}

type linkCache interface {
	Get(ctx context.Context, slug string) (string, bool, error)
	Set(ctx context.Context, slug, destinationURL string) error
}

type slugGenerator interface {
	Generate() (string, error)
}

type clickTracker interface {
	Track(ctx context.Context, slug string)
}

type LinkUseCase struct {
	linkRepo    linkRepository
	generator   slugGenerator
	tracker     clickTracker
	cache       linkCache
	logger      *slog.Logger
	maxAttempts int
}

type Option func(*LinkUseCase)

// WithCache enables read-through lookups of destinations.
func WithCache(cache linkCache) Option {
	return func(uc *LinkUseCase) {
		uc.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *LinkUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(uc *LinkUseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func New(linkRepo linkRepository, generator slugGenerator, tracker clickTracker, opts ...Option) *LinkUseCase {
	uc := &LinkUseCase{
		linkRepo:    linkRepo,
		generator:   generator,
		tracker:     tracker,
		logger:      slog.New(slog.DiscardHandler),
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ShortenURL creates a link for destination. When customSlug is empty a slug is
// generated, retrying on collision.
func (uc *LinkUseCase) ShortenURL(ctx context.Context, destination, customSlug string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.ShortenURL"

	if !slug.IsValidURL(destination) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}
	destination = slug.NormalizeURL(destination)

	var (
		link *entity.Link
		err  error
	)

	if customSlug != "" {
		link, err = uc.claimSlug(ctx, customSlug, destination)
	} else {
		link, err = uc.generateSlug(ctx, destination)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uc.cacheDestination(ctx, link.Slug, link.DestinationURL)

	return link, nil
}

func (uc *LinkUseCase) claimSlug(ctx context.Context, code, destination string) (*entity.Link, error) {
	if !slug.IsValidSlug(code) || slug.IsReserved(code) {
		return nil, entity.ErrInvalidSlug
	}

	_, err := uc.linkRepo.RetrieveBySlug(ctx, code)
	switch {
	case err == nil:
		return nil, entity.ErrSlugTaken
	case !errors.Is(err, entity.ErrLinkNotFound):
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	// The unique index decides concurrent claims that both passed the check above.
	link, err := uc.linkRepo.Save(ctx, code, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	return link, nil
}

func (uc *LinkUseCase) generateSlug(ctx context.Context, destination string) (*entity.Link, error) {
	for i := 0; i < uc.maxAttempts; i++ {
		code, err := uc.generator.Generate()
		if err != nil {
			return nil, err
		}

		if slug.IsReserved(code) {
			continue
		}

		link, err := uc.linkRepo.Save(ctx, code, destination)
		if err != nil {
			if errors.Is(err, entity.ErrSlugTaken) {
				continue
			}

			return nil, fmt.Errorf("failed to save link: %w", err)
		}

		return link, nil
	}

	return nil, ErrMaxAttemptsExceeded
}

// ResolveSlug returns the destination of the link and records the visit.
// The click increment runs in the background and never affects the result.
func (uc *LinkUseCase) ResolveSlug(ctx context.Context, code string) (string, error) {
	const op = "usecase.LinkUseCase.ResolveSlug"

	if !slug.IsValidSlug(code) {
		return "", fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	if destination, ok := uc.cachedDestination(ctx, code); ok {
		uc.tracker.Track(ctx, code)
		return destination, nil
	}

	link, err := uc.linkRepo.RetrieveBySlug(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve slug: %w", op, err)
	}

	uc.cacheDestination(ctx, link.Slug, link.DestinationURL)
	uc.tracker.Track(ctx, link.Slug)

	return link.DestinationURL, nil
}

// GetLinkStats returns the link as stored, bypassing the cache.
func (uc *LinkUseCase) GetLinkStats(ctx context.Context, code string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.GetLinkStats"

	if !slug.IsValidSlug(code) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link, err := uc.linkRepo.RetrieveBySlug(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link stats: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) cachedDestination(ctx context.Context, code string) (string, bool) {
	if uc.cache == nil {
		return "", false
	}

	destination, ok, err := uc.cache.Get(ctx, code)
	if err != nil {
		uc.logger.WarnContext(ctx, "failed to read link cache", slog.String("slug", code), slog.Any("err", err))
		return "", false
	}

	return destination, ok
}

func (uc *LinkUseCase) cacheDestination(ctx context.Context, code, destination string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Set(ctx, code, destination); err != nil {
		uc.logger.WarnContext(ctx, "failed to write link cache", slog.String("slug", code), slog.Any("err", err))
	}
}
