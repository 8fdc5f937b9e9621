package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/pricing"
	"github.com/prohmpiriya/decaying-tickets/pkg/logger"
	pkgredis "github.com/prohmpiriya/decaying-tickets/pkg/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReceiptDetails are the facts a receipt summary describes
type ReceiptDetails struct {
	ArtistName string
	ArenaName  string
	Total      float64
	Donation   float64
}

// NarrativeProvider writes human-readable purchase text. Implementations
// may be slow or fail; callers bound them with a timeout.
type NarrativeProvider interface {
	ImpactStory(ctx context.Context, amount float64, causeNames []string) (string, error)
	ReceiptSummary(ctx context.Context, r ReceiptDetails) (string, error)
}

// TemplateNarrativeProvider renders fixed templates without I/O
type TemplateNarrativeProvider struct{}

// NewTemplateNarrativeProvider creates a template provider
func NewTemplateNarrativeProvider() *TemplateNarrativeProvider {
	return &TemplateNarrativeProvider{}
}

func (p *TemplateNarrativeProvider) ImpactStory(ctx context.Context, amount float64, causeNames []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", nil
	}
	if len(causeNames) == 0 {
		return fmt.Sprintf("Your %s donation goes straight to the causes this artist champions.",
			pricing.FormatCurrency(amount)), nil
	}
	return fmt.Sprintf("Your %s donation funds %s, turning a ticket into lasting change on the ground.",
		pricing.FormatCurrency(amount), joinNames(causeNames)), nil
}

func (p *TemplateNarrativeProvider) ReceiptSummary(ctx context.Context, r ReceiptDetails) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	summary := fmt.Sprintf("%s at %s. Total paid %s.", r.ArtistName, r.ArenaName, pricing.FormatCurrency(r.Total))
	if r.Donation > 0 {
		summary += fmt.Sprintf(" %s of it is a tax-deductible donation, and the same price curve applies to every fan, so resale gives scalpers nothing to gain.",
			pricing.FormatCurrency(r.Donation))
	}
	return summary, nil
}

// joinNames renders "a", "a and b", "a, b and c"
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

// NarrativeCache is the subset of Redis the cached provider needs
type NarrativeCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedNarrativeProvider is a read-through Redis cache in front of another
// provider. Cache errors fall through to the wrapped provider.
type CachedNarrativeProvider struct {
	next  NarrativeProvider
	cache NarrativeCache
	ttl   time.Duration
}

// NewCachedNarrativeProvider wraps next with a cache
func NewCachedNarrativeProvider(next NarrativeProvider, cache NarrativeCache, ttl time.Duration) *CachedNarrativeProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedNarrativeProvider{next: next, cache: cache, ttl: ttl}
}

func (p *CachedNarrativeProvider) ImpactStory(ctx context.Context, amount float64, causeNames []string) (string, error) {
	key := narrativeKey("impact", fmt.Sprintf("%.2f|%s", amount, strings.Join(causeNames, "\x1f")))
	return p.load(ctx, key, func() (string, error) {
		return p.next.ImpactStory(ctx, amount, causeNames)
	})
}

func (p *CachedNarrativeProvider) ReceiptSummary(ctx context.Context, r ReceiptDetails) (string, error) {
	key := narrativeKey("receipt", fmt.Sprintf("%s|%s|%.2f|%.2f", r.ArtistName, r.ArenaName, r.Total, r.Donation))
	return p.load(ctx, key, func() (string, error) {
		return p.next.ReceiptSummary(ctx, r)
	})
}

func (p *CachedNarrativeProvider) load(ctx context.Context, key string, fetch func() (string, error)) (string, error) {
	cached, err := p.cache.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, pkgredis.Nil) {
		logger.WithContext(ctx).Warn("narrative cache read failed", zap.String("key", key), zap.Error(err))
	}

	text, err := fetch()
	if err != nil {
		return "", err
	}
	if text == "" {
		return text, nil
	}

	if err := p.cache.Set(context.WithoutCancel(ctx), key, text, p.ttl).Err(); err != nil {
		logger.WithContext(ctx).Warn("narrative cache write failed", zap.String("key", key), zap.Error(err))
	}
	return text, nil
}

func narrativeKey(kind, input string) string {
	sum := sha256.Sum256([]byte(input))
	return "narrative:" + kind + ":" + hex.EncodeToString(sum[:])
}
