package planning

import "errors"

var (
	ErrReadOnly         = errors.New("role has no write access to the plan")
	ErrInvalidMonth     = errors.New("invalid year or month")
	ErrInvalidDate      = errors.New("date is not within the planned month")
	ErrUnknownShiftType = errors.New("unknown shift type")
	ErrUnknownVehicle   = errors.New("unknown vehicle")
	ErrUnknownEmployee  = errors.New("unknown or inactive employee")
)
