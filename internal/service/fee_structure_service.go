package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type feeStructureRepository interface {
	FindActive(ctx context.Context, classID, sessionID string) (*models.FeeStructure, error)
	List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, error)
}

type structureCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// FeeStructureService resolves the active annual fee definition for a
// class/session pair through an injected read-through cache, replacing the
// process-wide structure cache of the legacy system.
type FeeStructureService struct {
	repo     feeStructureRepository
	cache    structureCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewFeeStructureService constructs the service. The cache is optional.
func NewFeeStructureService(repo feeStructureRepository, cache structureCache, cacheTTL time.Duration, logger *zap.Logger) *FeeStructureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &FeeStructureService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Resolve returns the single active structure for the pair. A missing
// structure is a configuration error scoped to the one student/operation
// that needed it; batch callers collect it instead of aborting.
func (s *FeeStructureService) Resolve(ctx context.Context, classID, sessionID string) (*models.FeeStructure, error) {
	key := structureCacheKey(classID, sessionID)
	if s.cache != nil {
		var cached models.FeeStructure
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	structure, err := s.repo.FindActive(ctx, classID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrFeeStructureMissing,
				fmt.Sprintf("no active fee structure for class %s in session %s", classID, sessionID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve fee structure")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, structure, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache fee structure", zap.Error(err))
		}
	}
	return structure, nil
}

// List returns structures matching the filter for read-only display.
func (s *FeeStructureService) List(ctx context.Context, filter models.FeeStructureFilter) ([]models.FeeStructure, error) {
	structures, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
	}
	return structures, nil
}

func structureCacheKey(classID, sessionID string) string {
	return fmt.Sprintf("fee_structure:%s:%s", classID, sessionID)
}
