package repository

import (
	"errors"

	"tripdispatch/internal/domain"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = domain.NewError(domain.KindNotFound, "entity not found")

	// ErrVersionConflict is returned when an update lost an optimistic-lock race.
	ErrVersionConflict = errors.New("entity was modified concurrently")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")
)
