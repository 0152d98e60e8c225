package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/redis"
	"tripdispatch/internal/repository"
)

// DriverService keeps the geo index and driver availability current.
type DriverService struct {
	locationStore redis.LocationStoreInterface
	driverCache   redis.DriverCacheInterface
	driverRepo    repository.DriverRepository
	vehicleRepo   repository.VehicleRepository
	logger        *zap.Logger
}

// NewDriverService creates a new DriverService. driverCache may be nil.
func NewDriverService(
	locationStore redis.LocationStoreInterface,
	driverCache redis.DriverCacheInterface,
	driverRepo repository.DriverRepository,
	vehicleRepo repository.VehicleRepository,
	logger *zap.Logger,
) *DriverService {
	return &DriverService{
		locationStore: locationStore,
		driverCache:   driverCache,
		driverRepo:    driverRepo,
		vehicleRepo:   vehicleRepo,
		logger:        logger,
	}
}

// UpdateLocationRequest contains the parameters for updating a location.
type UpdateLocationRequest struct {
	ID  string
	Lat float64
	Lng float64
}

// UpdateLocation records a driver's position and marks them ONLINE.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.ID == "" {
		return ErrInvalidDriverID
	}
	if !(domain.Point{Lat: req.Lat, Lng: req.Lng}).Valid() {
		return ErrInvalidLocation
	}

	if err := s.locationStore.UpdateDriverLocation(ctx, req.ID, req.Lat, req.Lng); err != nil {
		return err
	}

	err := s.driverRepo.UpdateStatus(ctx, req.ID, domain.DriverStatusOnline)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	s.invalidate(ctx, req.ID)
	return nil
}

// SetDriverOffline takes a driver out of the candidate pool.
func (s *DriverService) SetDriverOffline(ctx context.Context, driverID string) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOffline); err != nil {
		return err
	}

	if err := s.locationStore.RemoveDriver(ctx, driverID); err != nil {
		return err
	}

	s.invalidate(ctx, driverID)
	return nil
}

// UpdateVehicleLocation records where a vehicle is parked or driving.
func (s *DriverService) UpdateVehicleLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.ID == "" {
		return ErrInvalidVehicleID
	}
	if !(domain.Point{Lat: req.Lat, Lng: req.Lng}).Valid() {
		return ErrInvalidLocation
	}

	if _, err := s.vehicleRepo.GetByID(ctx, req.ID); err != nil {
		return err
	}

	return s.locationStore.UpdateVehicleLocation(ctx, req.ID, req.Lat, req.Lng)
}

func (s *DriverService) invalidate(ctx context.Context, driverID string) {
	if s.driverCache == nil {
		return
	}
	if err := s.driverCache.InvalidateDriver(ctx, driverID); err != nil {
		s.logger.Warn("failed to invalidate driver cache", zap.String("driver_id", driverID), zap.Error(err))
	}
}
