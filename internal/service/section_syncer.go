package service

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/decaying-tickets/internal/repository"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SectionSyncer seeds live seat counters from the catalog
type SectionSyncer interface {
	// SyncSection copies a section's persisted seat counts into the
	// inventory backend unless a counter already exists there
	SyncSection(ctx context.Context, sectionID string) error
}

// CatalogSectionSyncer implements SectionSyncer with single-flight, so a
// burst of first requests for a cold section loads it once
type CatalogSectionSyncer struct {
	catalog   repository.CatalogRepository
	inventory repository.InventoryRepository
	sfGroup   singleflight.Group
}

// NewSectionSyncer creates a new section syncer
func NewSectionSyncer(catalog repository.CatalogRepository, inventory repository.InventoryRepository) *CatalogSectionSyncer {
	return &CatalogSectionSyncer{
		catalog:   catalog,
		inventory: inventory,
	}
}

// SyncSection syncs one section, sharing the work between concurrent callers
func (s *CatalogSectionSyncer) SyncSection(ctx context.Context, sectionID string) error {
	_, err, _ := s.sfGroup.Do(sectionID, func() (interface{}, error) {
		return nil, s.doSync(ctx, sectionID)
	})
	return err
}

func (s *CatalogSectionSyncer) doSync(ctx context.Context, sectionID string) error {
	section, err := s.catalog.GetSection(ctx, sectionID)
	if err != nil {
		return err
	}

	if err := s.inventory.SetSection(ctx, sectionID, int64(section.TotalSeats), int64(section.AvailableSeats)); err != nil {
		return fmt.Errorf("failed to seed section %s: %w", sectionID, err)
	}

	logger.WithContext(ctx).Info("section inventory synced",
		zap.String("section_id", sectionID),
		zap.Int("total_seats", section.TotalSeats),
		zap.Int("available_seats", section.AvailableSeats),
	)
	return nil
}
