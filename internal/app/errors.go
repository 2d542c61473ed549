package service

import (
	"errors"
	"fmt"

	"github.com/okian/edurank/internal/domain/model"
)

var (
	// ErrNoStore is returned when the service was built without a store.
	ErrNoStore = errors.New("service has no store")
	// ErrRosterTooLarge is returned when a roster exceeds the configured limit.
	ErrRosterTooLarge = fmt.Errorf("%w: roster exceeds configured size", model.ErrLimitExceeded)
)
