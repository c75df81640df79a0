package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/lagna/internal/model"
)

const keyPrefix = "lagna:v1:"

// Cache defines the interface for snapshot memoization
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key hashes the given parts into a versioned cache key
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// SnapshotKey identifies a chart by every input that shapes it. Coordinates
// are keyed at 1e-6 degree, well below the precision of any declared birth place.
func SnapshotKey(instant time.Time, lat, lon float64, opts model.ChartOptions) string {
	return Key(
		"snapshot",
		instant.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%.6f", lat),
		fmt.Sprintf("%.6f", lon),
		opts.Ayanamsa,
		string(opts.HouseSystem),
		string(opts.NodeMode),
		string(opts.Division),
		fmt.Sprintf("%t", opts.FallbackWholeSign),
	)
}

// New builds the cache described by cfg. A disabled cache returns nil;
// an empty dir keeps the cache in memory only.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
