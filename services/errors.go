package services

import "errors"

// Errors shared across services and mapped to HTTP statuses by the handlers.
var (
	// Not found
	ErrMatchNotFound = errors.New("match not found")
	ErrTeamNotFound  = errors.New("team not found")

	// Validation and bracket state rules
	ErrInvalidScore        = errors.New("scores must be non-negative integers")
	ErrMatchNotReady       = errors.New("match is waiting on an upstream result; both team slots must be filled")
	ErrMatchAlreadyDecided = errors.New("match is already decided; a decided match is immutable")
	ErrTeamCount           = errors.New("bracket requires exactly 8 seeded teams")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrInvalidSeed         = errors.New("team seed must be between 1 and 8")

	// Conflicts
	ErrTeamNameConflict = errors.New("team name is already in use")
	ErrTeamSeedConflict = errors.New("team seed is already taken")

	// Logo uploads
	ErrUnsupportedLogoType = errors.New("unsupported logo content type")
	ErrLogoStorageDisabled = errors.New("logo storage is not configured")
)
