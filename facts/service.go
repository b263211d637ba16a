package facts

import (
	"context"
	"time"

	"sales-assistant/domain"
	apperrors "sales-assistant/errors"
	"sales-assistant/utils"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// Store is the read/write surface the resolver needs from storage.
type Store interface {
	ListFacts(ctx context.Context, product domain.ProductCode) ([]domain.ProductFact, error)
	InsertFact(ctx context.Context, fact domain.ProductFact) (int64, error)
}

// Service loads candidate facts per product and resolves queries against
// them. Candidate lists are cached until a fact for that product is written.
type Service struct {
	store   Store
	cache   *lru.Cache
	timeout time.Duration
	logger  *zap.Logger
}

func NewService(store Store, cacheSize int, timeout time.Duration, logger *zap.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{store: store, cache: cache, timeout: timeout, logger: logger}, nil
}

// Resolve returns the best fact for q or Miss. A miss is not an error; an
// error always means storage failed.
func (s *Service) Resolve(ctx context.Context, q Query) (Result, error) {
	product, err := domain.ParseProductCode(string(q.Product))
	if err != nil || !product.Valid() {
		return Miss, apperrors.NewValidationError("product_code", "unknown product code %q", q.Product)
	}
	q.Product = product
	candidates, err := s.candidates(ctx, q.Product)
	if err != nil {
		return Miss, err
	}
	res := Resolve(candidates, q)
	s.logger.Debug("Resolved product fact",
		zap.String("product", string(q.Product)),
		zap.Bool("found", res.Found),
		zap.Stringer("tier", res.Tier))
	return res, nil
}

// AddFact validates and stores a fact, dropping the cached candidates for
// its product.
func (s *Service) AddFact(ctx context.Context, fact domain.ProductFact) (int64, error) {
	product, err := domain.ParseProductCode(string(fact.Product))
	if err != nil {
		return 0, err
	}
	fact.Product = product
	if err := fact.Validate(); err != nil {
		return 0, err
	}
	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now().UTC()
	}
	writeCtx, cancel := utils.DetachedTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.store.InsertFact(writeCtx, fact)
	if err != nil {
		return 0, apperrors.Dependency(err, "insert product fact")
	}
	s.cache.Remove(fact.Product)
	return id, nil
}

func (s *Service) candidates(ctx context.Context, product domain.ProductCode) ([]domain.ProductFact, error) {
	if cached, ok := s.cache.Get(product); ok {
		return cached.([]domain.ProductFact), nil
	}
	readCtx, cancel := utils.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.store.ListFacts(readCtx, product)
	if err != nil {
		return nil, apperrors.Dependency(err, "list product facts")
	}
	s.cache.Add(product, list)
	return list, nil
}
