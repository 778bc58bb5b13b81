package health

import "errors"

var (
	// ErrCheckFailed marks a check that evaluated and found the
	// component unusable.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check that did not finish inside the
	// aggregator's deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned when a named check is not
	// registered.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoCheckers is returned when an evaluation is requested with
	// nothing registered.
	ErrNoCheckers = errors.New("health: no checkers registered")
)
