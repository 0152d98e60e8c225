package domain

import "time"

// TripKind distinguishes immediate trips from booked ones.
type TripKind string

const (
	TripKindInstant   TripKind = "INSTANT"
	TripKindScheduled TripKind = "SCHEDULED"
)

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusPending    TripStatus = "PENDING"
	TripStatusAccepted   TripStatus = "ACCEPTED"
	TripStatusProcessing TripStatus = "PROCESSING"
	TripStatusRejected   TripStatus = "REJECTED"
	TripStatusCancelled  TripStatus = "CANCELLED"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusPaid       TripStatus = "PAID"
)

// IsTerminal reports whether no further transition can leave this status.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusPaid || s == TripStatusCancelled
}

// IsActive reports whether a trip in this status holds its driver and vehicle.
func (s TripStatus) IsActive() bool {
	return s == TripStatusPending || s == TripStatusAccepted || s == TripStatusProcessing
}

// IsFinished reports whether the ride itself has been performed.
func (s TripStatus) IsFinished() bool {
	return s == TripStatusCompleted || s == TripStatusPaid
}

// AssignmentStatus is the state of one driver assignment of a trip.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentRejected AssignmentStatus = "REJECTED"
	AssignmentClosed   AssignmentStatus = "CLOSED"
)

// Assignment records one driver (and vehicle) attached to a trip.
// A rejected assignment is kept when the trip is reassigned.
type Assignment struct {
	Seq        int
	DriverID   string
	VehicleID  string
	Status     AssignmentStatus
	Reason     string
	AssignedAt time.Time
	ClosedAt   time.Time
}

// Trip represents a booking between a customer, a driver and a vehicle.
type Trip struct {
	ID             string
	CustomerID     string
	DriverID       string // Empty until a driver is assigned.
	VehicleID      string
	Pickup         Point
	Dropoff        Point
	Kind           TripKind
	StartDate      time.Time
	EndDate        time.Time // Zero when the trip has no planned end.
	DistanceKm     float64
	BasePrice      float64 // Price before any discount.
	Price          float64
	PromoCode      string
	DiscountAmount float64
	Status         TripStatus
	Notes          string
	RejectReason   string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Assignments    []Assignment
}

// HasEndDate reports whether the trip carries a planned end time.
func (t *Trip) HasEndDate() bool {
	return !t.EndDate.IsZero()
}

// Window returns the interval the trip asks its driver and vehicle for.
// Instant trips ask for the current instant only.
func (t *Trip) Window(now time.Time) TimeWindow {
	if t.Kind == TripKindInstant {
		return InstantWindow(now)
	}
	return ScheduledWindow(t.StartDate, t.EndDate)
}

// Occupancy returns the interval during which the trip holds its driver.
// A trip already in progress, and an instant trip with no planned end, hold
// the driver until they leave the active statuses.
func (t *Trip) Occupancy() TimeWindow {
	w := ScheduledWindow(t.StartDate, t.EndDate)
	if t.Status == TripStatusProcessing || (t.Kind == TripKindInstant && !t.HasEndDate()) {
		w.End = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return w
}

// Conflicts reports whether the trip is active and occupies part of w.
func (t *Trip) Conflicts(w TimeWindow) bool {
	return t.Status.IsActive() && t.Occupancy().Overlaps(w)
}

// ActiveAssignment returns the current assignment, if any.
func (t *Trip) ActiveAssignment() (*Assignment, bool) {
	for i := len(t.Assignments) - 1; i >= 0; i-- {
		if t.Assignments[i].Status == AssignmentActive {
			return &t.Assignments[i], true
		}
	}
	return nil, false
}

// RejectedDriverIDs lists every driver that has rejected this trip.
func (t *Trip) RejectedDriverIDs() []string {
	var ids []string
	for _, a := range t.Assignments {
		if a.Status == AssignmentRejected {
			ids = append(ids, a.DriverID)
		}
	}
	return ids
}

// Assign attaches a new active assignment, closing any previous active one.
func (t *Trip) Assign(driverID, vehicleID string, at time.Time) {
	if a, ok := t.ActiveAssignment(); ok {
		a.Status = AssignmentClosed
		a.ClosedAt = at
	}
	if vehicleID == "" {
		vehicleID = t.VehicleID
	}
	t.DriverID = driverID
	t.VehicleID = vehicleID
	t.Assignments = append(t.Assignments, Assignment{
		Seq:        len(t.Assignments) + 1,
		DriverID:   driverID,
		VehicleID:  vehicleID,
		Status:     AssignmentActive,
		AssignedAt: at,
	})
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (t *Trip) Clone() *Trip {
	c := *t
	c.Assignments = append([]Assignment(nil), t.Assignments...)
	return &c
}

// TripEvent is one entry of a trip's append-only transition log.
type TripEvent struct {
	ID        int64
	TripID    string
	From      TripStatus // Empty for the creation event.
	To        TripStatus
	ActorID   string
	ActorRole Role
	Reason    string
	CreatedAt time.Time
}

// ValidateSchedule checks the kind/start/end invariants of a new trip.
func ValidateSchedule(kind TripKind, start, end, now time.Time) error {
	switch kind {
	case TripKindInstant:
		if !end.IsZero() {
			return NewError(KindValidation, "instant trips cannot have an end date")
		}
	case TripKindScheduled:
		if start.IsZero() {
			return NewError(KindValidation, "scheduled trips require a start date")
		}
		if start.Before(now) {
			return NewError(KindValidation, "start date must not be in the past")
		}
		if !end.IsZero() && end.Before(start) {
			return NewError(KindValidation, "end date must not be before start date")
		}
	default:
		return Errorf(KindValidation, "unknown trip kind %q", kind)
	}
	return nil
}
