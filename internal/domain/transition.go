package domain

import (
	"fmt"
	"time"
)

// guard is an extra condition a permitted role must satisfy for a transition.
type guard func(t *Trip, a Actor, now time.Time) error

type rule struct {
	roles []Role
	guard guard
}

// transitions lists every permitted (from, to) pair and who may perform it.
var transitions = map[TripStatus]map[TripStatus]rule{
	TripStatusPending: {
		TripStatusAccepted:   {roles: []Role{RoleDriver}, guard: allOf(assignedDriver, withEndDate)},
		TripStatusProcessing: {roles: []Role{RoleDriver}, guard: allOf(assignedDriver, withoutEndDate)},
		TripStatusRejected:   {roles: []Role{RoleDriver}, guard: assignedDriver},
		TripStatusCancelled:  {roles: []Role{RoleCustomer, RoleAdmin}, guard: owningCustomer},
	},
	TripStatusAccepted: {
		TripStatusProcessing: {roles: []Role{RoleDriver}, guard: allOf(assignedDriver, startReached)},
		TripStatusCancelled:  {roles: []Role{RoleAdmin}},
	},
	TripStatusProcessing: {
		TripStatusCompleted: {roles: []Role{RoleDriver}, guard: assignedDriver},
		TripStatusCancelled: {roles: []Role{RoleAdmin}},
	},
	TripStatusCompleted: {
		TripStatusPaid: {roles: []Role{RoleSystem}},
	},
	TripStatusRejected: {
		TripStatusCancelled: {roles: []Role{RoleAdmin}},
		TripStatusPending:   {roles: []Role{RoleAdmin}},
	},
}

// CanTransition reports whether the status graph has an edge from -> to,
// regardless of who asks.
func CanTransition(from, to TripStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// CheckTransition validates that actor may move t to the target status at now.
// It never mutates t.
func CheckTransition(t *Trip, actor Actor, to TripStatus, now time.Time) error {
	r, ok := transitions[t.Status][to]
	if !ok {
		return illegal(t.Status, to, "no such transition")
	}
	if !hasRole(r.roles, actor.Role) {
		return illegal(t.Status, to, fmt.Sprintf("not permitted for role %s", actor.Role))
	}
	if r.guard != nil {
		if err := r.guard(t, actor, now); err != nil {
			return err
		}
	}
	return nil
}

// CheckCreate validates that actor may create a trip for customerID.
func CheckCreate(actor Actor, customerID string) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleCustomer:
		if customerID == "" || customerID == actor.ID {
			return nil
		}
		return NewError(KindIllegalTransition, "customers can only create their own trips")
	}
	return Errorf(KindIllegalTransition, "role %s cannot create trips", actor.Role)
}

func illegal(from, to TripStatus, why string) error {
	return Errorf(KindIllegalTransition, "cannot move trip from %s to %s: %s", from, to, why)
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func allOf(gs ...guard) guard {
	return func(t *Trip, a Actor, now time.Time) error {
		for _, g := range gs {
			if err := g(t, a, now); err != nil {
				return err
			}
		}
		return nil
	}
}

func assignedDriver(t *Trip, a Actor, _ time.Time) error {
	if t.DriverID == "" || t.DriverID != a.ID {
		return NewError(KindIllegalTransition, "trip is not assigned to this driver")
	}
	return nil
}

func owningCustomer(t *Trip, a Actor, _ time.Time) error {
	if a.Role == RoleCustomer && t.CustomerID != a.ID {
		return NewError(KindIllegalTransition, "trip belongs to another customer")
	}
	return nil
}

func withEndDate(t *Trip, _ Actor, _ time.Time) error {
	if !t.HasEndDate() {
		return NewError(KindIllegalTransition, "trips without an end date start directly instead of being accepted")
	}
	return nil
}

func withoutEndDate(t *Trip, _ Actor, _ time.Time) error {
	if t.HasEndDate() {
		return NewError(KindIllegalTransition, "trips with an end date must be accepted before they start")
	}
	return nil
}

func startReached(t *Trip, _ Actor, now time.Time) error {
	if now.Before(t.StartDate) {
		return NewError(KindIllegalTransition, "trip cannot start before its start date")
	}
	return nil
}
