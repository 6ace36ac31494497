package resolver

import (
	"context"
	"strings"

	"github.com/wonny/kairos/pkg/logger"
	"github.com/wonny/kairos/pkg/redis"
)

// NameSource answers "what is the display name of this symbol"
type NameSource interface {
	ResolveName(ctx context.Context, symbol string) (string, error)
}

// FallbackSource scrapes a directory when the primary source fails
type FallbackSource interface {
	LookupName(ctx context.Context, symbol string) (string, error)
}

// Resolver maps instrument symbols to display names.
// ⭐ SSOT: 심볼 → 이름 해석은 이 타입에서만
// 캐시 → 1차 소스 → 폴백 순서. 전부 실패하면 ok=false (파이프라인은 계속)
type Resolver struct {
	primary  NameSource
	fallback FallbackSource
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewResolver creates a resolver; primary, fallback and cache may each be nil
func NewResolver(primary NameSource, fallback FallbackSource, cache *redis.Cache, log *logger.Logger) *Resolver {
	return &Resolver{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		logger:   log,
	}
}

// Resolve returns the display name for a symbol, reporting absence via ok
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", false
	}

	var name string
	if r.cache != nil {
		if hit, err := r.cache.Get(ctx, redis.SymbolNameKey(symbol), &name); err == nil && hit && name != "" {
			return name, true
		}
	}

	if r.primary != nil {
		resolved, err := r.primary.ResolveName(ctx, symbol)
		if err == nil && resolved != "" {
			r.store(ctx, symbol, resolved)
			return resolved, true
		}
		if err != nil {
			r.logger.WithError(err).WithField("symbol", symbol).Warn("Primary name source failed")
		}
	}

	if r.fallback != nil {
		resolved, err := r.fallback.LookupName(ctx, symbol)
		if err == nil && resolved != "" {
			r.store(ctx, symbol, resolved)
			return resolved, true
		}
		if err != nil {
			r.logger.WithError(err).WithField("symbol", symbol).Warn("Fallback name source failed")
		}
	}

	return "", false
}

// store caches a resolved name; cache errors are not fatal
func (r *Resolver) store(ctx context.Context, symbol, name string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, redis.SymbolNameKey(symbol), name, redis.TTLWeekly); err != nil {
		r.logger.WithError(err).WithField("symbol", symbol).Debug("Name cache write failed")
	}
}
