package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdantiq/buyerview/backend-go/internal/config"
	"github.com/verdantiq/buyerview/backend-go/internal/domain"
)

const (
	buyerViewItemsKeyPrefix = "buyer_view:items"
	buyerViewScanBatchSize  = 100
)

// BuyerViewCache stores filtered item listings between uploads. Every upload
// replaces the snapshot, so writers call InvalidateAll right after loading.
// Entries keep the pre-pagination match count so a cached page reports the
// same total as a cold read.
type BuyerViewCache interface {
	GetItems(ctx context.Context, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, bool, error)
	SetItems(ctx context.Context, filter domain.BuyerViewFilter, items []domain.ItemSummary, total int) error
	InvalidateAll(ctx context.Context) error
}

type cachedItemsPage struct {
	Items []domain.ItemSummary `json:"items"`
	Total int                  `json:"total"`
}

type redisBuyerViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopBuyerViewCache struct{}

func NewBuyerViewCache(cfg config.CacheConfig) (BuyerViewCache, error) {
	if !cfg.Enabled {
		return &noopBuyerViewCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisBuyerViewCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopBuyerViewCache() BuyerViewCache {
	return &noopBuyerViewCache{}
}

func (c *redisBuyerViewCache) GetItems(ctx context.Context, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, bool, error) {
	key := buildBuyerViewItemsKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get failed: %w", err)
	}

	var page cachedItemsPage
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, 0, false, fmt.Errorf("decode buyer view items cache: %w", err)
	}

	return page.Items, page.Total, true, nil
}

func (c *redisBuyerViewCache) SetItems(ctx context.Context, filter domain.BuyerViewFilter, items []domain.ItemSummary, total int) error {
	key := buildBuyerViewItemsKey(filter)
	payload, err := json.Marshal(cachedItemsPage{Items: items, Total: total})
	if err != nil {
		return fmt.Errorf("encode buyer view items cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisBuyerViewCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, buyerViewItemsKeyPrefix, buyerViewScanBatchSize)
}

func (n *noopBuyerViewCache) GetItems(ctx context.Context, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, bool, error) {
	return nil, 0, false, nil
}

func (n *noopBuyerViewCache) SetItems(ctx context.Context, filter domain.BuyerViewFilter, items []domain.ItemSummary, total int) error {
	return nil
}

func (n *noopBuyerViewCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildBuyerViewItemsKey(filter domain.BuyerViewFilter) string {
	return fmt.Sprintf("%s:%s", buyerViewItemsKeyPrefix, buyerViewFilterHash(filter))
}

func buyerViewFilterHash(filter domain.BuyerViewFilter) string {
	parts := []string{}

	if filter.Status != "" {
		parts = append(parts, "status="+strings.ToLower(strings.TrimSpace(filter.Status)))
	}
	if filter.Category != "" {
		parts = append(parts, "category="+strings.ToLower(strings.TrimSpace(filter.Category)))
	}
	if filter.Search != "" {
		parts = append(parts, "search="+strings.ToLower(strings.TrimSpace(filter.Search)))
	}
	if filter.Expiration != "" && filter.Expiration != domain.ExpireAny {
		parts = append(parts, "expiration="+string(filter.Expiration))
	}
	if filter.MinDOH > 0 {
		parts = append(parts, fmt.Sprintf("min_doh=%.2f", filter.MinDOH))
	}
	if filter.Page > 0 {
		parts = append(parts, fmt.Sprintf("page=%d", filter.Page))
	}
	if filter.PageSize > 0 {
		parts = append(parts, fmt.Sprintf("page_size=%d", filter.PageSize))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
