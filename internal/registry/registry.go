package registry

import (
	"errors"
	"log"
	"regexp"

	"adfleet-backend/internal/models"
	"adfleet-backend/internal/repository"
	"adfleet-backend/pkg/cache"
)

// ErrNotRegistered means the device identifier has no registration; the
// caller must register the tablet through the admin platform first.
var ErrNotRegistered = errors.New("device not registered")

// Service resolves device identifiers to their vehicle-group and slot.
// Lookups go through a redis read-through cache: the mapping changes rarely
// but is read on every ingestion call. Cache entries go stale for at most
// the configured TTL after a re-registration.
type Service struct {
	devices *repository.DeviceRepository
	cache   cache.RegistryCache
	config  cache.CacheConfig
}

func NewService(devices *repository.DeviceRepository) *Service {
	return &Service{
		devices: devices,
		config:  cache.DefaultCacheConfig(),
	}
}

// SetCache enables the read-through cache.
func (s *Service) SetCache(c cache.RegistryCache) {
	s.cache = c
}

// SetCacheConfig overrides the cache TTL configuration.
func (s *Service) SetCacheConfig(config cache.CacheConfig) {
	s.config = config
}

// Resolve maps a device identifier to its registration, failing closed with
// ErrNotRegistered on a miss.
func (s *Service) Resolve(deviceID string) (*models.DeviceRegistration, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDevice(deviceID)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			log.Printf("Registry cache error for %s: %v", deviceID, err)
		}
	}

	registration, err := s.devices.FindByDeviceID(deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDevice(deviceID, registration, s.config.DeviceTTL); err != nil {
			log.Printf("Failed to cache registration for %s: %v", deviceID, err)
		}
	}

	return registration, nil
}

// Tablets identify themselves with UUIDs or long unbroken hex strings;
// material codes are short human-assigned identifiers.
var (
	uuidShape = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hexShape  = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
)

// IsDeviceShaped reports whether an identifier has the shape of a device id.
// Ingestion rejects a materialId with this shape instead of silently keying
// a malformed record under it.
func IsDeviceShaped(id string) bool {
	return uuidShape.MatchString(id) || hexShape.MatchString(id)
}
