package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verdantiq/buyerview/backend-go/internal/archive"
	"github.com/verdantiq/buyerview/backend-go/internal/cache"
	"github.com/verdantiq/buyerview/backend-go/internal/domain"
	"github.com/verdantiq/buyerview/backend-go/internal/engine"
	"github.com/verdantiq/buyerview/backend-go/internal/export"
	"github.com/verdantiq/buyerview/backend-go/internal/repository"
)

// DefaultSlowMoverDOHThreshold is the days-of-supply cutoff behind the
// slow-mover KPI count.
const DefaultSlowMoverDOHThreshold = 60.0

// ErrNoSnapshot is returned when no report pair has been loaded yet.
var ErrNoSnapshot = errors.New("no snapshot loaded")

// BuyerViewService owns the current classified snapshot. Uploads replace it
// wholesale; reads never see a half-loaded view.
type BuyerViewService struct {
	mu       sync.RWMutex
	snapshot *domain.Snapshot

	repo      repository.SnapshotRepository
	cache     cache.BuyerViewCache
	storage   archive.ObjectStorage
	exportDir string
}

// NewBuyerViewService wires the service. repo and storage may be nil when
// persistence or archiving is disabled; cacheImpl nil falls back to noop.
func NewBuyerViewService(repo repository.SnapshotRepository, cacheImpl cache.BuyerViewCache, storage archive.ObjectStorage, exportDir string) *BuyerViewService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopBuyerViewCache()
	}
	return &BuyerViewService{
		repo:      repo,
		cache:     cacheImpl,
		storage:   storage,
		exportDir: exportDir,
	}
}

// LoadSnapshot classifies a report pair and swaps it in as the current view.
func (s *BuyerViewService) LoadSnapshot(ctx context.Context, inventory, sales engine.Table, opts engine.Options) (*domain.Snapshot, error) {
	result, err := engine.Classify(inventory, sales, opts)
	if err != nil {
		return nil, err
	}

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	snapshot := &domain.Snapshot{
		Date:         asOf,
		WindowDays:   result.WindowDays,
		Room:         opts.Room,
		RoomIncluded: result.RoomIncluded,
		RoomExcluded: result.RoomExcluded,
		Items:        result.Items,
		LoadedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("buyer view: cache invalidation failed")
	}

	if s.repo != nil {
		if err := s.repo.SaveSnapshot(ctx, snapshot); err != nil {
			log.Warn().Err(err).Msg("buyer view: snapshot persistence failed")
		}
	}

	log.Info().
		Int("items", len(snapshot.Items)).
		Int("window_days", snapshot.WindowDays).
		Str("room", opts.Room).
		Msg("buyer view snapshot loaded")

	return snapshot, nil
}

// Current returns the loaded snapshot, or ErrNoSnapshot before the first load.
func (s *BuyerViewService) Current() (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return s.snapshot, nil
}

// Items returns the filtered, paginated item listing plus the total count
// before pagination.
func (s *BuyerViewService) Items(ctx context.Context, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, 0, err
	}

	if items, total, ok, cacheErr := s.cache.GetItems(ctx, filter); cacheErr == nil && ok {
		return items, total, nil
	} else if cacheErr != nil {
		log.Warn().Err(cacheErr).Msg("buyer view: cache get items failed")
	}

	matched := filterItems(snapshot.Items, filter)
	total := len(matched)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(matched) {
			matched = nil
		} else {
			end := start + filter.PageSize
			if end > len(matched) {
				end = len(matched)
			}
			matched = matched[start:end]
		}
	}

	if err := s.cache.SetItems(ctx, filter, matched, total); err != nil {
		log.Warn().Err(err).Msg("buyer view: cache set items failed")
	}

	return matched, total, nil
}

// Summary computes the KPI strip over the whole current snapshot.
func (s *BuyerViewService) Summary(ctx context.Context) (*domain.BuyerViewSummary, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	summary := &domain.BuyerViewSummary{
		StatusCounts: make(map[domain.BuyerStatus]int),
	}

	var knownDOH []float64
	unitsByCategory := make(map[string]float64)

	for i := range snapshot.Items {
		item := &snapshot.Items[i]
		summary.StatusCounts[item.Status]++
		summary.TotalUnits += item.OnHandUnits

		if item.OnHandUnits > 0 {
			summary.SKUsInStock++
		}
		if item.UnitCost != nil {
			summary.DollarsOnHand += item.OnHandUnits * *item.UnitCost
		}
		// Sentinel DOH would drag the median toward infinity; the KPI only
		// reflects items with a measurable run rate.
		if item.DaysOfSupply < engine.UnknownDaysOfSupply {
			knownDOH = append(knownDOH, item.DaysOfSupply)
		}
		if item.DaysOfSupply > DefaultSlowMoverDOHThreshold {
			summary.SlowMovers++
		}
		if item.Category != "" {
			unitsByCategory[item.Category] += item.OnHandUnits
		}
	}

	summary.MedianDaysOfSupply = medianOf(knownDOH)

	// Worst category carries the most units on hand.
	worstUnits := 0.0
	for category, units := range unitsByCategory {
		if units > worstUnits || (units == worstUnits && category < summary.WorstCategory) {
			summary.WorstCategory = category
			worstUnits = units
		}
	}

	return summary, nil
}

// SlowMovers lists items sitting past a days-of-supply threshold, worst
// first. A non-positive threshold falls back to the 60-day default.
func (s *BuyerViewService) SlowMovers(ctx context.Context, threshold float64) ([]domain.ItemSummary, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	if threshold <= 0 {
		threshold = DefaultSlowMoverDOHThreshold
	}

	var items []domain.ItemSummary
	for _, item := range snapshot.Items {
		if item.DaysOfSupply <= threshold {
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SlowMoverScore > items[j].SlowMoverScore
	})

	return items, nil
}

// POSuggestions lists the items a buyer should reorder, with the suggested
// PO price already computed.
func (s *BuyerViewService) POSuggestions(ctx context.Context) ([]domain.POSuggestion, error) {
	snapshot, err := s.Current()
	if err != nil {
		return nil, err
	}

	var suggestions []domain.POSuggestion
	for _, item := range snapshot.Items {
		if item.Status != domain.StatusReorder && item.Status != domain.StatusNoStock {
			continue
		}
		suggestions = append(suggestions, domain.POSuggestion{
			ItemName:         item.ItemName,
			Category:         item.Category,
			OnHandUnits:      item.OnHandUnits,
			DaysOfSupply:     item.DaysOfSupply,
			AvgWeeklySales:   item.AvgWeeklySales,
			SuggestedPOPrice: item.SuggestedPOPrice,
			Status:           item.Status,
		})
	}

	return suggestions, nil
}

// Export writes the current filtered view to a CSV under the export dir and
// archives it when object storage is configured. Returns the local path.
func (s *BuyerViewService) Export(ctx context.Context, filter domain.BuyerViewFilter) (string, error) {
	snapshot, err := s.Current()
	if err != nil {
		return "", err
	}

	items := filterItems(snapshot.Items, filter)

	path, err := export.WriteBuyerViewFile(s.exportDir, items, time.Now())
	if err != nil {
		return "", err
	}

	if s.storage != nil {
		key := fmt.Sprintf("exports/%s/%s", snapshot.Date.Format("2006-01-02"), filepath.Base(path))
		if err := s.storage.UploadFile(ctx, key, path); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("buyer view: export archive failed")
		}
	}

	return path, nil
}

// AvailableDates lists snapshot dates kept in the database, newest first.
func (s *BuyerViewService) AvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.GetAvailableDates(ctx, limit)
}

// HistoricalItems reads a persisted snapshot instead of the in-memory one.
func (s *BuyerViewService) HistoricalItems(ctx context.Context, date time.Time, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, error) {
	if s.repo == nil {
		return nil, 0, fmt.Errorf("snapshot history requires the database")
	}
	return s.repo.GetItems(ctx, date, filter)
}

// HistoricalStatusCounts tallies a persisted snapshot's items per status
// badge, mirroring what Summary reports for the live view.
func (s *BuyerViewService) HistoricalStatusCounts(ctx context.Context, date time.Time) ([]domain.StatusCount, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("snapshot history requires the database")
	}
	return s.repo.GetStatusCounts(ctx, date)
}

func filterItems(items []domain.ItemSummary, filter domain.BuyerViewFilter) []domain.ItemSummary {
	status, hasStatus := domain.ParseBuyerStatus(filter.Status)
	category := strings.ToLower(strings.TrimSpace(filter.Category))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	expireDays := filter.Expiration.Days()

	matched := make([]domain.ItemSummary, 0, len(items))
	for _, item := range items {
		if hasStatus && item.Status != status {
			continue
		}
		if category != "" && strings.ToLower(item.Category) != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.ItemName), search) {
			continue
		}
		if expireDays > 0 {
			if item.DaysToExpire == nil || *item.DaysToExpire >= expireDays {
				continue
			}
		}
		if filter.MinDOH > 0 && item.DaysOfSupply < filter.MinDOH {
			continue
		}
		matched = append(matched, item)
	}

	return matched
}

func medianOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
