package store

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/internal/profile"
	"github.com/kataforge/kataforge/store/cache"
)

// Sentinel errors surfaced by drivers. Services translate these into coded
// engine errors; they must never be swallowed by the store layer.
var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write loses a race on its key.
	ErrConflict = errors.New("storage conflict")
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Cache settings
	cacheConfig cache.Config

	// Caches
	achievementCache *cache.Cache // cache for the achievement catalog
	userCache        *cache.Cache // cache for users
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
	}

	return &Store{
		driver:           driver,
		profile:          profile,
		cacheConfig:      cacheConfig,
		achievementCache: cache.New(cacheConfig),
		userCache:        cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.achievementCache.Close()
	s.userCache.Close()

	return s.driver.Close()
}
