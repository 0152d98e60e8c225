package service

import "tripdispatch/internal/domain"

var (
	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = domain.NewError(domain.KindValidation, "invalid trip id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = domain.NewError(domain.KindValidation, "invalid driver id")

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = domain.NewError(domain.KindValidation, "invalid vehicle id")

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = domain.NewError(domain.KindValidation, "invalid customer id")

	// ErrPickupRequired is returned when a lookup or booking has no pickup point.
	ErrPickupRequired = domain.NewError(domain.KindValidation, "pickup point is required")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = domain.NewError(domain.KindValidation, "invalid location")

	// ErrInvalidRadius is returned when a search radius is negative.
	ErrInvalidRadius = domain.NewError(domain.KindValidation, "search radius must be positive")

	// ErrVehicleRequired is returned when a trip cannot be priced without a vehicle.
	ErrVehicleRequired = domain.NewError(domain.KindValidation, "a vehicle is required to price the trip")

	// ErrInvalidDistance is returned when a manual distance is negative.
	ErrInvalidDistance = domain.NewError(domain.KindValidation, "distance must not be negative")

	// ErrPromoCodeRequired is returned when applying an empty promo code.
	ErrPromoCodeRequired = domain.NewError(domain.KindInvalidPromo, "promo code is required")

	// ErrInvalidPaymentAmount is returned when payment amount is invalid.
	ErrInvalidPaymentAmount = domain.NewError(domain.KindValidation, "invalid payment amount")

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = domain.NewError(domain.KindValidation, "invalid payment id")

	// ErrInvalidPaymentMethod is returned when payment method is invalid.
	ErrInvalidPaymentMethod = domain.NewError(domain.KindValidation, "invalid payment method")

	// ErrDriverAlreadyAssigned is returned when assigning a driver to a trip that has one.
	ErrDriverAlreadyAssigned = domain.NewError(domain.KindIllegalTransition, "trip already has a driver")

	// ErrConcurrentUpdate is returned when another request changed the trip first.
	ErrConcurrentUpdate = domain.NewError(domain.KindIllegalTransition, "trip was changed by another request")

	// ErrRatingDriverMismatch is returned when a rating names a driver that did not serve the trip.
	ErrRatingDriverMismatch = domain.NewError(domain.KindValidation, "driver did not serve this trip")

	// ErrNotTripCustomer is returned when a customer acts on another customer's trip.
	ErrNotTripCustomer = domain.NewError(domain.KindTripNotEligible, "trip belongs to another customer")
)
