package service_test

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tripdispatch/internal/broker"
	"tripdispatch/internal/domain"
	"tripdispatch/internal/redis"
	"tripdispatch/internal/repository"
	"tripdispatch/internal/service"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is an in-memory TripRepository.
type MockTripRepository struct {
	mu     sync.RWMutex
	trips  map[string]*domain.Trip
	events []*domain.TripEvent

	// Counters for verification
	UpdateCallCount int32

	// Error injection
	CreateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[string]*domain.Trip)}
}

// AddTrip stores a trip as is.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip.Version == 0 {
		trip.Version = 1
	}
	m.trips[trip.ID] = trip.Clone()
}

// GetTrip returns a copy of the stored trip (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	if !ok {
		return nil
	}
	return t.Clone()
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; ok {
		return repository.ErrDuplicate
	}
	m.trips[trip.ID] = trip.Clone()
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (m *MockTripRepository) list(match func(*domain.Trip) bool) []*domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if match(t) {
			result = append(result, t.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (m *MockTripRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool { return t.CustomerID == customerID }), nil
}

func (m *MockTripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	return m.list(func(t *domain.Trip) bool {
		for _, a := range t.Assignments {
			if a.DriverID == driverID {
				return true
			}
		}
		return false
	}), nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip, expectedVersion int) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	trip.Version = expectedVersion + 1
	m.trips[trip.ID] = trip.Clone()
	return nil
}

func (m *MockTripRepository) hasConflict(match func(*domain.Trip) bool, w domain.TimeWindow, excludeTripID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.ID != excludeTripID && match(t) && t.Conflicts(w) {
			return true
		}
	}
	return false
}

func (m *MockTripRepository) DriverHasConflict(ctx context.Context, driverID string, w domain.TimeWindow, excludeTripID string) (bool, error) {
	return m.hasConflict(func(t *domain.Trip) bool { return t.DriverID == driverID }, w, excludeTripID), nil
}

func (m *MockTripRepository) VehicleHasConflict(ctx context.Context, vehicleID string, w domain.TimeWindow, excludeTripID string) (bool, error) {
	return m.hasConflict(func(t *domain.Trip) bool { return t.VehicleID == vehicleID }, w, excludeTripID), nil
}

func (m *MockTripRepository) BusyDriverIDs(ctx context.Context, w domain.TimeWindow) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	busy := make(map[string]bool)
	for _, t := range m.trips {
		if t.DriverID != "" && t.Conflicts(w) {
			busy[t.DriverID] = true
		}
	}
	return busy, nil
}

func (m *MockTripRepository) BusyVehicleIDs(ctx context.Context, w domain.TimeWindow) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	busy := make(map[string]bool)
	for _, t := range m.trips {
		if t.VehicleID != "" && t.Conflicts(w) {
			busy[t.VehicleID] = true
		}
	}
	return busy, nil
}

func (m *MockTripRepository) AppendEvent(ctx context.Context, event *domain.TripEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *event
	e.ID = int64(len(m.events) + 1)
	event.ID = e.ID
	m.events = append(m.events, &e)
	return nil
}

func (m *MockTripRepository) ListEvents(ctx context.Context, tripID string) ([]*domain.TripEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.TripEvent, 0)
	for _, e := range m.events {
		if e.TripID == tripID {
			copy := *e
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is an in-memory DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	UpdateStatusCallCount int32
	GetByIDsCallCount     int32

	// Error injection
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = copyDriver(driver)
}

// GetDriver returns a copy of the driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil
	}
	return copyDriver(d)
}

func copyDriver(d *domain.Driver) *domain.Driver {
	c := *d
	c.ProvinceVisits = make(map[string]int, len(d.ProvinceVisits))
	for k, v := range d.ProvinceVisits {
		c.ProvinceVisits[k] = v
	}
	return &c
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyDriver(d), nil
}

func (m *MockDriverRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error) {
	atomic.AddInt32(&m.GetByIDsCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(ids))
	for _, id := range ids {
		if d, ok := m.drivers[id]; ok {
			result = append(result, copyDriver(d))
		}
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

func (m *MockDriverRepository) RecordCompletedTrip(ctx context.Context, id string, province string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.TripCount++
	if province != "" {
		if d.ProvinceVisits == nil {
			d.ProvinceVisits = make(map[string]int)
		}
		d.ProvinceVisits[province]++
	}
	return nil
}

func (m *MockDriverRepository) AddRating(ctx context.Context, id string, stars int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Rating = (d.Rating*float64(d.RatingCount) + float64(stars)) / float64(d.RatingCount+1)
	d.RatingCount++
	return nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is an in-memory VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{vehicles: make(map[string]*domain.Vehicle)}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(v *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *v
	m.vehicles[v.ID] = &copy
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (m *MockVehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.vehicles[id]; ok {
			copy := *v
			result = append(result, &copy)
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PROMOTION REPOSITORY
// ──────────────────────────────────────────────

// MockPromotionRepository is an in-memory PromotionRepository.
type MockPromotionRepository struct {
	mu     sync.RWMutex
	promos map[string]*domain.Promotion
}

// NewMockPromotionRepository creates a new mock promotion repository.
func NewMockPromotionRepository() *MockPromotionRepository {
	return &MockPromotionRepository{promos: make(map[string]*domain.Promotion)}
}

// AddPromotion adds a promotion under its normalised code.
func (m *MockPromotionRepository) AddPromotion(p *domain.Promotion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *p
	copy.Code = domain.NormalizePromoCode(p.Code)
	m.promos[copy.Code] = &copy
}

// UsedCount returns the used count of a promotion (for test assertions).
func (m *MockPromotionRepository) UsedCount(code string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.promos[domain.NormalizePromoCode(code)].UsedCount
}

func (m *MockPromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.promos[strings.ToUpper(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPromotionRepository) ConsumeUsage(ctx context.Context, code string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[code]
	if !ok || !p.Active || p.UsedCount >= p.UsageLimit || (!p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)) {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK RATING REPOSITORY
// ──────────────────────────────────────────────

// MockRatingRepository is an in-memory RatingRepository.
type MockRatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]*domain.Rating // keyed by trip and customer
}

// NewMockRatingRepository creates a new mock rating repository.
func NewMockRatingRepository() *MockRatingRepository {
	return &MockRatingRepository{ratings: make(map[string]*domain.Rating)}
}

func ratingKey(tripID, customerID string) string {
	return tripID + "/" + customerID
}

// CountRatings returns the number of stored ratings.
func (m *MockRatingRepository) CountRatings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ratings)
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ratingKey(rating.TripID, rating.CustomerID)
	if _, ok := m.ratings[key]; ok {
		return repository.ErrDuplicate
	}
	copy := *rating
	m.ratings[key] = &copy
	return nil
}

func (m *MockRatingRepository) Exists(ctx context.Context, tripID, customerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ratings[ratingKey(tripID, customerID)]
	return ok, nil
}

func (m *MockRatingRepository) RatedTripIDs(ctx context.Context, customerID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rated := make(map[string]bool)
	for _, r := range m.ratings {
		if r.CustomerID == customerID {
			rated[r.TripID] = true
		}
	}
	return rated, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is an in-memory PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment
	byKey    map[string]string

	// Counters for verification
	CreateCallCount int32
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
		byKey:    make(map[string]string),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[payment.IdempotencyKey]; ok {
		return repository.ErrDuplicate
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	m.byKey[payment.IdempotencyKey] = payment.ID
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	copy := *m.payments[id]
	return &copy, nil
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK TRANSACTOR
// ──────────────────────────────────────────────

// MockTransactor runs transactions one at a time over the mock repositories.
// It does not roll back.
type MockTransactor struct {
	mu    sync.Mutex
	store *mockStore

	TxCount int32
}

type mockStore struct {
	trips    *MockTripRepository
	drivers  *MockDriverRepository
	vehicles *MockVehicleRepository
	promos   *MockPromotionRepository
	ratings  *MockRatingRepository
	locks    []string
}

func (s *mockStore) Trips() repository.TripRepository           { return s.trips }
func (s *mockStore) Drivers() repository.DriverRepository       { return s.drivers }
func (s *mockStore) Vehicles() repository.VehicleRepository     { return s.vehicles }
func (s *mockStore) Promotions() repository.PromotionRepository { return s.promos }
func (s *mockStore) Ratings() repository.RatingRepository       { return s.ratings }

func (s *mockStore) Lock(ctx context.Context, key string) error {
	s.locks = append(s.locks, key)
	return nil
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	atomic.AddInt32(&m.TxCount, 1)
	m.store.locks = nil
	return fn(ctx, m.store)
}

// LockedKeys returns the advisory lock keys taken by the last transaction.
func (m *MockTransactor) LockedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.store.locks...)
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory geo index.
type MockLocationStore struct {
	mu       sync.RWMutex
	drivers  map[string]domain.Point
	vehicles map[string]domain.Point

	FindError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		drivers:  make(map[string]domain.Point),
		vehicles: make(map[string]domain.Point),
	}
}

func (m *MockLocationStore) UpdateDriverLocation(ctx context.Context, driverID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driverID] = domain.Point{Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) UpdateVehicleLocation(ctx context.Context, vehicleID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicleID] = domain.Point{Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) RemoveDriver(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

// HasDriver reports whether the driver is in the index.
func (m *MockLocationStore) HasDriver(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[id]
	return ok
}

func (m *MockLocationStore) nearby(index map[string]domain.Point, lat, lng, radiusKm float64) []redis.Location {
	m.mu.RLock()
	defer m.mu.RUnlock()
	center := domain.Point{Lat: lat, Lng: lng}
	result := make([]redis.Location, 0)
	for id, p := range index {
		if d := center.DistanceKm(p); d <= radiusKm {
			result = append(result, redis.Location{ID: id, Lat: p.Lat, Lng: p.Lng, DistanceKm: d})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DistanceKm < result[j].DistanceKm })
	return result
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.Location, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	return m.nearby(m.drivers, lat, lng, radiusKm), nil
}

func (m *MockLocationStore) FindNearbyVehicles(ctx context.Context, lat, lng, radiusKm float64) ([]redis.Location, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	return m.nearby(m.vehicles, lat, lng, radiusKm), nil
}

// MockLockStore is an in-memory token lock.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string
	next  int

	AcquireCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

// Hold takes key as if another instance owned it.
func (m *MockLockStore) Hold(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = "other"
}

// IsHeld reports whether key is currently locked.
func (m *MockLockStore) IsHeld(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locks[key]
	return ok
}

func (m *MockLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locks[key]; ok {
		return "", nil
	}
	m.next++
	token := key + "#" + strconv.Itoa(m.next)
	m.locks[key] = token
	return token, nil
}

func (m *MockLockStore) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return nil
}

// MockDriverCache is an in-memory driver profile cache.
type MockDriverCache struct {
	mu      sync.Mutex
	drivers map[string]*redis.CachedDriver

	InvalidateCallCount int32
}

// NewMockDriverCache creates a new mock driver cache.
func NewMockDriverCache() *MockDriverCache {
	return &MockDriverCache{drivers: make(map[string]*redis.CachedDriver)}
}

func (m *MockDriverCache) GetDriversBatch(ctx context.Context, ids []string) (map[string]*redis.CachedDriver, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]*redis.CachedDriver)
	var missing []string
	for _, id := range ids {
		if d, ok := m.drivers[id]; ok {
			found[id] = d
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func (m *MockDriverCache) SetDriversBatch(ctx context.Context, drivers []*redis.CachedDriver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range drivers {
		m.drivers[d.ID] = d
	}
	return nil
}

func (m *MockDriverCache) InvalidateDriver(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK COLLABORATORS
// ──────────────────────────────────────────────

// MockPublisher records published messages.
type MockPublisher struct {
	mu       sync.Mutex
	messages []broker.Message

	PublishError error
}

func (m *MockPublisher) Publish(ctx context.Context, msg broker.Message) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Messages returns the published messages.
func (m *MockPublisher) Messages() []broker.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broker.Message(nil), m.messages...)
}

// MockRouter returns a fixed distance or error.
type MockRouter struct {
	Km  float64
	Err error
}

func (m *MockRouter) RouteDistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	return m.Km, m.Err
}

// MockGeocoder resolves every coordinate to a fixed place.
type MockGeocoder struct {
	Place domain.Place
	Err   error
}

func (m *MockGeocoder) Search(ctx context.Context, query string) ([]domain.Place, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return []domain.Place{m.Place}, nil
}

func (m *MockGeocoder) Reverse(ctx context.Context, lat, lng float64) (domain.Place, error) {
	if m.Err != nil {
		return domain.Place{}, m.Err
	}
	p := m.Place
	p.Lat, p.Lng = lat, lng
	return p, nil
}

// MockPSP approves or declines every charge.
type MockPSP struct {
	Decline bool
	Err     error

	ChargeCallCount int32
}

func (m *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (bool, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	if m.Err != nil {
		return false, m.Err
	}
	return !m.Decline, nil
}

// ──────────────────────────────────────────────
// FIXTURE
// ──────────────────────────────────────────────

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// fixture wires every service over fresh mocks with a fixed clock.
type fixture struct {
	now time.Time

	trips     *MockTripRepository
	drivers   *MockDriverRepository
	vehicles  *MockVehicleRepository
	promos    *MockPromotionRepository
	ratings   *MockRatingRepository
	payments  *MockPaymentRepository
	tx        *MockTransactor
	locations *MockLocationStore
	locks     *MockLockStore
	publisher *MockPublisher
	router    *MockRouter
	psp       *MockPSP

	candidateService    *service.CandidateService
	pricingService      *service.PricingService
	tripService         *service.TripService
	reassignmentService *service.ReassignmentService
	ratingService       *service.RatingService
	paymentService      *service.PaymentService
	quoteService        *service.QuoteService
	driverService       *service.DriverService
}

func newFixture() *fixture {
	f := &fixture{
		now:       baseTime,
		trips:     NewMockTripRepository(),
		drivers:   NewMockDriverRepository(),
		vehicles:  NewMockVehicleRepository(),
		promos:    NewMockPromotionRepository(),
		ratings:   NewMockRatingRepository(),
		payments:  NewMockPaymentRepository(),
		locations: NewMockLocationStore(),
		locks:     NewMockLockStore(),
		publisher: &MockPublisher{},
		router:    &MockRouter{Km: 10},
		psp:       &MockPSP{},
	}
	f.tx = &MockTransactor{store: &mockStore{
		trips:    f.trips,
		drivers:  f.drivers,
		vehicles: f.vehicles,
		promos:   f.promos,
		ratings:  f.ratings,
	}}

	logger := zapNop()
	clock := func() time.Time { return f.now }

	notifications := service.NewNotificationService(f.publisher, logger)
	f.candidateService = service.NewCandidateService(f.locations, nil, f.drivers, f.vehicles, f.trips, logger, 0)
	f.pricingService = service.NewPricingService(f.router, f.promos)
	f.pricingService.SetClock(clock)
	f.tripService = service.NewTripService(f.trips, f.vehicles, f.tx, f.locks, f.pricingService, notifications, logger)
	f.tripService.SetClock(clock)
	f.reassignmentService = service.NewReassignmentService(f.tripService, f.candidateService, logger)
	f.ratingService = service.NewRatingService(f.trips, f.ratings, f.tx, logger)
	f.ratingService.SetClock(clock)
	f.paymentService = service.NewPaymentService(f.payments, f.psp, f.tripService, service.NewReceiptService(notifications), notifications, logger)
	f.quoteService = service.NewQuoteService(f.candidateService, f.pricingService, nil, logger)
	f.quoteService.SetClock(clock)
	f.driverService = service.NewDriverService(f.locations, nil, f.drivers, f.vehicles, logger)
	return f
}

var (
	customer = domain.Actor{ID: "customer-1", Role: domain.RoleCustomer}
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func driverActor(id string) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleDriver}
}

// Colombo, Western Province.
var pickupPoint = domain.Point{Lat: 6.9271, Lng: 79.8612, Address: "Colombo Fort", Province: "Western Province"}
var dropoffPoint = domain.Point{Lat: 6.8649, Lng: 79.8997, Address: "Nugegoda", Province: "Western Province"}

// addDriver registers an online driver near the pickup point.
func (f *fixture) addDriver(d *domain.Driver) {
	if d.Status == "" {
		d.Status = domain.DriverStatusOnline
	}
	f.drivers.AddDriver(d)
	_ = f.locations.UpdateDriverLocation(context.Background(), d.ID, pickupPoint.Lat+0.001, pickupPoint.Lng)
}

// addVehicle registers a vehicle near the pickup point.
func (f *fixture) addVehicle(v *domain.Vehicle) {
	f.vehicles.AddVehicle(v)
	_ = f.locations.UpdateVehicleLocation(context.Background(), v.ID, pickupPoint.Lat, pickupPoint.Lng+0.001)
}

func (f *fixture) instantRequest(driverID, vehicleID string) service.CreateTripRequest {
	pickup, dropoff := pickupPoint, dropoffPoint
	return service.CreateTripRequest{
		Pickup:    &pickup,
		Dropoff:   &dropoff,
		Kind:      domain.TripKindInstant,
		DriverID:  driverID,
		VehicleID: vehicleID,
	}
}

func (f *fixture) scheduledRequest(driverID, vehicleID string, start, end time.Time) service.CreateTripRequest {
	req := f.instantRequest(driverID, vehicleID)
	req.Kind = domain.TripKindScheduled
	req.StartDate = start
	req.EndDate = end
	return req
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}
