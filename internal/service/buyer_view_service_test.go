package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
	"github.com/verdantiq/buyerview/backend-go/internal/engine"
)

func testTables() (engine.Table, engine.Table) {
	inventory := engine.Table{
		Headers: []string{"Item Name", "On Hand Units", "Unit Cost", "Expiration Date", "Category"},
		Records: [][]string{
			{"Blue Dream 3.5g", "40", "12.00", "2026-06-01", "Flower"},
			{"OG Kush 1g", "0", "5.00", "", "Flower"},
			{"Sour Gummies 100mg", "120", "8.00", "2027-01-01", "Edibles"},
			{"Calm Tincture 30ml", "30", "25.00", "2026-09-20", "Tinctures"},
		},
	}
	sales := engine.Table{
		Headers: []string{"Item Name", "Quantity Sold"},
		Records: [][]string{
			{"Blue Dream 3.5g", "16"},
			{"Sour Gummies 100mg", "8"},
			{"Calm Tincture 30ml", "1"},
		},
	}
	return inventory, sales
}

func loadTestSnapshot(t *testing.T, svc *BuyerViewService) *domain.Snapshot {
	t.Helper()
	inventory, sales := testTables()
	snapshot, err := svc.LoadSnapshot(context.Background(), inventory, sales, engine.Options{
		WindowDays: 8,
		AsOf:       time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	return snapshot
}

func TestCurrentBeforeLoad(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())

	if _, err := svc.Current(); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if _, _, err := svc.Items(context.Background(), domain.BuyerViewFilter{}); err != ErrNoSnapshot {
		t.Fatalf("expected ErrNoSnapshot from Items, got %v", err)
	}
}

func TestLoadSnapshotAndItems(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())
	snapshot := loadTestSnapshot(t, svc)

	if len(snapshot.Items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(snapshot.Items))
	}
	if snapshot.WindowDays != 8 {
		t.Errorf("window days = %d, want 8", snapshot.WindowDays)
	}

	items, total, err := svc.Items(context.Background(), domain.BuyerViewFilter{Status: "No Stock"})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 no-stock item, got %d (total %d)", len(items), total)
	}
	if items[0].ItemName != "OG Kush 1g" {
		t.Errorf("no-stock item = %q", items[0].ItemName)
	}

	items, _, err = svc.Items(context.Background(), domain.BuyerViewFilter{Search: "gummies"})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || items[0].ItemName != "Sour Gummies 100mg" {
		t.Fatalf("search did not match, got %v", items)
	}

	items, _, err = svc.Items(context.Background(), domain.BuyerViewFilter{Category: "flower"})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 flower items, got %d", len(items))
	}
}

func TestItemsPagination(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())
	loadTestSnapshot(t, svc)

	items, total, err := svc.Items(context.Background(), domain.BuyerViewFilter{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(items) != 1 {
		t.Errorf("second page should carry the remainder, got %d items", len(items))
	}

	items, _, err = svc.Items(context.Background(), domain.BuyerViewFilter{Page: 9, PageSize: 3})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("page past the end should be empty, got %d items", len(items))
	}
}

// memoryPageCache is a map-backed BuyerViewCache for exercising hit paths.
type memoryPageCache struct {
	pages map[domain.BuyerViewFilter]memoryPage
	hits  int
}

type memoryPage struct {
	items []domain.ItemSummary
	total int
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{pages: make(map[domain.BuyerViewFilter]memoryPage)}
}

func (m *memoryPageCache) GetItems(ctx context.Context, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, bool, error) {
	page, ok := m.pages[filter]
	if !ok {
		return nil, 0, false, nil
	}
	m.hits++
	return page.items, page.total, true, nil
}

func (m *memoryPageCache) SetItems(ctx context.Context, filter domain.BuyerViewFilter, items []domain.ItemSummary, total int) error {
	m.pages[filter] = memoryPage{items: items, total: total}
	return nil
}

func (m *memoryPageCache) InvalidateAll(ctx context.Context) error {
	m.pages = make(map[domain.BuyerViewFilter]memoryPage)
	return nil
}

func TestItemsCachedTotal(t *testing.T) {
	pageCache := newMemoryPageCache()
	svc := NewBuyerViewService(nil, pageCache, nil, t.TempDir())
	loadTestSnapshot(t, svc)

	filter := domain.BuyerViewFilter{Page: 1, PageSize: 3}

	items, total, err := svc.Items(context.Background(), filter)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 3 || total != 4 {
		t.Fatalf("cold read: %d items, total %d, want 3 and 4", len(items), total)
	}

	// The second read serves the cached page and must report the same
	// pre-pagination total as the cold one.
	items, total, err = svc.Items(context.Background(), filter)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if pageCache.hits != 1 {
		t.Fatalf("expected the second read to hit the cache, hits = %d", pageCache.hits)
	}
	if len(items) != 3 {
		t.Errorf("cached page = %d items, want 3", len(items))
	}
	if total != 4 {
		t.Errorf("cached total = %d, want 4", total)
	}
}

func TestItemsExpirationWindow(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())
	loadTestSnapshot(t, svc)

	// Blue Dream expires 2026-06-01, 107 days from the 2026-02-14 anchor;
	// only the <30/<60 windows exclude everything with a known date.
	items, _, err := svc.Items(context.Background(), domain.BuyerViewFilter{Expiration: domain.ExpireUnder60})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected nothing expiring under 60 days, got %d", len(items))
	}
}

func TestSummary(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())
	loadTestSnapshot(t, svc)

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.SKUsInStock != 3 {
		t.Errorf("SKUs in stock = %d, want 3", summary.SKUsInStock)
	}
	if summary.TotalUnits != 190 {
		t.Errorf("total units = %v, want 190", summary.TotalUnits)
	}
	// 40*12 + 0*5 + 120*8 + 30*25 = 2190
	if summary.DollarsOnHand != 2190 {
		t.Errorf("dollars on hand = %v, want 2190", summary.DollarsOnHand)
	}
	if summary.StatusCounts[domain.StatusNoStock] != 1 {
		t.Errorf("no stock count = %d, want 1", summary.StatusCounts[domain.StatusNoStock])
	}

	// OG Kush has no run rate, so its sentinel days of supply stays out of
	// the median: 20, 120, 240 -> 120.
	if summary.MedianDaysOfSupply != 120 {
		t.Errorf("median DOH = %v, want 120", summary.MedianDaysOfSupply)
	}

	// Kush (999), gummies (120) and the tincture (240) all sit past the
	// 60-day cutoff.
	if summary.SlowMovers != 3 {
		t.Errorf("slow movers = %d, want 3", summary.SlowMovers)
	}
	// Edibles carry 120 units against 40 flower and 30 tincture.
	if summary.WorstCategory != "Edibles" {
		t.Errorf("worst category = %q, want Edibles", summary.WorstCategory)
	}
}

func TestSlowMovers(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())
	loadTestSnapshot(t, svc)

	items, err := svc.SlowMovers(context.Background(), 0)
	if err != nil {
		t.Fatalf("SlowMovers: %v", err)
	}

	// Default 60-day cutoff keeps the gummies (120), the tincture (240)
	// and the out-of-stock kush at the 999 sentinel. Blue Dream at 20
	// days stays out.
	if len(items) != 3 {
		t.Fatalf("expected 3 slow movers, got %d", len(items))
	}
	if items[0].ItemName != "Calm Tincture 30ml" {
		t.Errorf("worst slow mover = %q, want the tincture first", items[0].ItemName)
	}

	items, err = svc.SlowMovers(context.Background(), 200)
	if err != nil {
		t.Fatalf("SlowMovers: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("raised threshold should keep the tincture and the kush, got %d", len(items))
	}
}

func TestPOSuggestions(t *testing.T) {
	svc := NewBuyerViewService(nil, nil, nil, t.TempDir())
	loadTestSnapshot(t, svc)

	suggestions, err := svc.POSuggestions(context.Background())
	if err != nil {
		t.Fatalf("POSuggestions: %v", err)
	}

	// Blue Dream at 20 days of supply needs a reorder, OG Kush is out.
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	for _, sg := range suggestions {
		switch sg.ItemName {
		case "Blue Dream 3.5g":
			if sg.SuggestedPOPrice != 6 {
				t.Errorf("Blue Dream PO price = %v, want 6", sg.SuggestedPOPrice)
			}
		case "OG Kush 1g":
			if sg.Status != domain.StatusNoStock {
				t.Errorf("OG Kush status = %q", sg.Status)
			}
		default:
			t.Errorf("unexpected suggestion %q", sg.ItemName)
		}
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	svc := NewBuyerViewService(nil, nil, nil, dir)
	loadTestSnapshot(t, svc)

	path, err := svc.Export(context.Background(), domain.BuyerViewFilter{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Blue Dream 3.5g") {
		t.Errorf("export missing item rows:\n%s", content)
	}
	if !strings.HasPrefix(content, "Item Name,") {
		t.Errorf("export missing header:\n%s", content)
	}
}

// stubSnapshotRepo fakes the persistence layer for history reads.
type stubSnapshotRepo struct {
	counts     []domain.StatusCount
	countsDate time.Time
}

func (r *stubSnapshotRepo) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	return nil
}

func (r *stubSnapshotRepo) GetItems(ctx context.Context, date time.Time, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, error) {
	return nil, 0, nil
}

func (r *stubSnapshotRepo) GetStatusCounts(ctx context.Context, date time.Time) ([]domain.StatusCount, error) {
	r.countsDate = date
	return r.counts, nil
}

func (r *stubSnapshotRepo) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return nil, nil
}

func TestHistoricalStatusCounts(t *testing.T) {
	repo := &stubSnapshotRepo{counts: []domain.StatusCount{
		{Status: "Healthy", Count: 2},
		{Status: "No Stock", Count: 1},
	}}
	svc := NewBuyerViewService(repo, nil, nil, t.TempDir())

	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	counts, err := svc.HistoricalStatusCounts(context.Background(), date)
	if err != nil {
		t.Fatalf("HistoricalStatusCounts: %v", err)
	}
	if len(counts) != 2 || counts[0].Count != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
	if !repo.countsDate.Equal(date) {
		t.Errorf("repo queried for %v, want %v", repo.countsDate, date)
	}

	bare := NewBuyerViewService(nil, nil, nil, t.TempDir())
	if _, err := bare.HistoricalStatusCounts(context.Background(), date); err == nil {
		t.Fatal("expected an error without a repository")
	}
}
