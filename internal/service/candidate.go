package service

import (
	"context"

	"go.uber.org/zap"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/redis"
	"tripdispatch/internal/repository"
)

const defaultSearchRadiusKm = 5.0

// CandidateService finds drivers and vehicles that can serve a pickup point
// during a time window.
type CandidateService struct {
	locationStore redis.LocationStoreInterface
	driverCache   redis.DriverCacheInterface
	driverRepo    repository.DriverRepository
	vehicleRepo   repository.VehicleRepository
	tripRepo      repository.TripRepository
	logger        *zap.Logger
	defaultRadius float64
}

// NewCandidateService creates a new CandidateService. driverCache may be nil.
func NewCandidateService(
	locationStore redis.LocationStoreInterface,
	driverCache redis.DriverCacheInterface,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
	tripRepo repository.TripRepository,
	logger *zap.Logger,
	defaultRadiusKm float64,
) *CandidateService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = defaultSearchRadiusKm
	}
	return &CandidateService{
		locationStore: locationStore,
		driverCache:   driverCache,
		driverRepo:    driverRepo,
		vehicleRepo:   vehicleRepo,
		tripRepo:      tripRepo,
		logger:        logger,
		defaultRadius: defaultRadiusKm,
	}
}

// CandidateQuery contains the parameters of a candidate lookup.
type CandidateQuery struct {
	Point    *domain.Point
	RadiusKm float64 // Optional: 0 uses the default radius.
	Window   domain.TimeWindow
}

func (s *CandidateService) validate(q *CandidateQuery) error {
	if q.Point == nil {
		return ErrPickupRequired
	}
	if !q.Point.Valid() {
		return ErrInvalidLocation
	}
	if q.RadiusKm < 0 {
		return ErrInvalidRadius
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = s.defaultRadius
	}
	if q.Window.End.Before(q.Window.Start) {
		return domain.NewError(domain.KindValidation, "time window ends before it starts")
	}
	return nil
}

// FindNearbyDrivers returns available drivers within the radius that have no
// conflicting trip in the window, nearest first. An empty result is not an error.
func (s *CandidateService) FindNearbyDrivers(ctx context.Context, q CandidateQuery) ([]domain.DriverCandidate, error) {
	if err := s.validate(&q); err != nil {
		return nil, err
	}

	nearby, err := s.locationStore.FindNearbyDrivers(ctx, q.Point.Lat, q.Point.Lng, q.RadiusKm)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return []domain.DriverCandidate{}, nil
	}

	ids := make([]string, len(nearby))
	for i, loc := range nearby {
		ids[i] = loc.ID
	}

	drivers, err := s.loadDrivers(ctx, ids)
	if err != nil {
		return nil, err
	}

	busy, err := s.tripRepo.BusyDriverIDs(ctx, q.Window)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.DriverCandidate, 0, len(nearby))
	for _, loc := range nearby {
		driver, ok := drivers[loc.ID]
		if !ok || !driver.Available() || busy[loc.ID] {
			continue
		}
		candidates = append(candidates, domain.NewDriverCandidate(driver, loc.DistanceKm))
	}

	s.logger.Debug("driver candidates resolved",
		zap.Int("nearby", len(nearby)),
		zap.Int("eligible", len(candidates)),
		zap.Float64("radius_km", q.RadiusKm),
	)
	return candidates, nil
}

// FindNearbyVehicles returns vehicles within the radius that are neither in
// maintenance nor booked during the window, nearest first.
func (s *CandidateService) FindNearbyVehicles(ctx context.Context, q CandidateQuery) ([]domain.VehicleCandidate, error) {
	if err := s.validate(&q); err != nil {
		return nil, err
	}

	nearby, err := s.locationStore.FindNearbyVehicles(ctx, q.Point.Lat, q.Point.Lng, q.RadiusKm)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return []domain.VehicleCandidate{}, nil
	}

	ids := make([]string, len(nearby))
	for i, loc := range nearby {
		ids[i] = loc.ID
	}

	vehicles, err := s.vehicleRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}

	busy, err := s.tripRepo.BusyVehicleIDs(ctx, q.Window)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.VehicleCandidate, 0, len(nearby))
	for _, loc := range nearby {
		v, ok := byID[loc.ID]
		if !ok || busy[loc.ID] || v.InMaintenance(q.Window) {
			continue
		}
		candidates = append(candidates, domain.VehicleCandidate{Vehicle: *v, DistanceKm: loc.DistanceKm})
	}
	return candidates, nil
}

// loadDrivers reads driver profiles through the cache, falling back to the
// repository for misses.
func (s *CandidateService) loadDrivers(ctx context.Context, ids []string) (map[string]*domain.Driver, error) {
	out := make(map[string]*domain.Driver, len(ids))
	missing := ids

	if s.driverCache != nil {
		cached, miss, err := s.driverCache.GetDriversBatch(ctx, ids)
		if err != nil {
			s.logger.Warn("driver cache read failed", zap.Error(err))
		} else {
			for id, c := range cached {
				out[id] = fromCachedDriver(c)
			}
			missing = miss
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	drivers, err := s.driverRepo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	toCache := make([]*redis.CachedDriver, 0, len(drivers))
	for _, d := range drivers {
		out[d.ID] = d
		toCache = append(toCache, toCachedDriver(d))
	}
	if s.driverCache != nil {
		if err := s.driverCache.SetDriversBatch(ctx, toCache); err != nil {
			s.logger.Warn("driver cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func toCachedDriver(d *domain.Driver) *redis.CachedDriver {
	return &redis.CachedDriver{
		ID:             d.ID,
		Name:           d.Name,
		Phone:          d.Phone,
		Status:         string(d.Status),
		Rating:         d.Rating,
		RatingCount:    d.RatingCount,
		TripCount:      d.TripCount,
		ProvinceVisits: d.ProvinceVisits,
	}
}

func fromCachedDriver(c *redis.CachedDriver) *domain.Driver {
	return &domain.Driver{
		ID:             c.ID,
		Name:           c.Name,
		Phone:          c.Phone,
		Status:         domain.DriverStatus(c.Status),
		Rating:         c.Rating,
		RatingCount:    c.RatingCount,
		TripCount:      c.TripCount,
		ProvinceVisits: c.ProvinceVisits,
	}
}
