package repository

import (
	"errors"
	"fmt"

	"github.com/okian/edurank/internal/domain/model"
)

// Sentinel kinds for repository errors.
var (
	// ErrInvalidScope is an invariant violation, not a lookup miss.
	ErrInvalidScope = fmt.Errorf("%w: invalid completion scope", model.ErrInvariantViolation)
	// ErrDuplicate is returned when a writer inserts an id twice.
	ErrDuplicate = errors.New("duplicate id")
)
