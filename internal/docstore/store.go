package docstore

import (
	"context"

	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Collection names shared by every backend.
const (
	CollectionUsers       = "users"
	CollectionShiftTypes  = "shiftTypes"
	CollectionVehicles    = "vehicles"
	CollectionAssignments = "assignments"
	CollectionDuty        = "dienst"
)

type UserStore interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	// FindUserByEmail returns the first profile carrying email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListUsers returns profiles ordered by display name.
	ListUsers(ctx context.Context, activeOnly bool) ([]domain.User, error)
	UpdateUser(ctx context.Context, uid string, upd UserUpdate) (*domain.User, error)
}

// UserUpdate carries the fields personnel administration may change. Nil
// fields are left untouched.
type UserUpdate struct {
	DisplayName *string
	Role        *domain.Role
	IsActive    *bool
}

type ShiftTypeStore interface {
	ListShiftTypes(ctx context.Context) ([]domain.ShiftType, error)
	GetShiftType(ctx context.Context, id string) (*domain.ShiftType, error)
	// CreateShiftType fails with domain.ErrConflict when st.ID is taken. An
	// empty ID gets a generated one.
	CreateShiftType(ctx context.Context, st domain.ShiftType) (*domain.ShiftType, error)
	UpdateShiftType(ctx context.Context, st domain.ShiftType) (*domain.ShiftType, error)
	DeleteShiftType(ctx context.Context, id string) error
}

type VehicleStore interface {
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	CreateVehicle(ctx context.Context, v domain.Vehicle) (*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, v domain.Vehicle) (*domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
}

// AssignmentWrite is the payload of a cell upsert.
type AssignmentWrite struct {
	UID         string
	Date        string
	ShiftTypeID string
	VehicleID   string
	Source      string
}

type AssignmentStore interface {
	// ListAssignments returns assignments with from <= date <= to, ordered
	// by date.
	ListAssignments(ctx context.Context, from, to string) ([]domain.Assignment, error)
	// UpsertAssignment atomically creates or updates the single assignment
	// of a cell. previous is nil when the cell was empty.
	UpsertAssignment(ctx context.Context, w AssignmentWrite) (saved, previous *domain.Assignment, err error)
	// ClearAssignment deletes every assignment of the cell, including legacy
	// duplicates, and returns what was removed. An empty cell is a no-op.
	ClearAssignment(ctx context.Context, uid, date string) ([]domain.Assignment, error)
}

type DutyStore interface {
	// ListDuty returns every entry ordered by date.
	ListDuty(ctx context.Context) ([]domain.DutyEntry, error)
	// CreateDuty assigns the id and the creation time.
	CreateDuty(ctx context.Context, e domain.DutyEntry) (*domain.DutyEntry, error)
	// UpdateDuty replaces date, employee, shift and notes. CreatedAt and
	// CreatedBy keep their stored values.
	UpdateDuty(ctx context.Context, e domain.DutyEntry) (*domain.DutyEntry, error)
	DeleteDuty(ctx context.Context, id string) error
}

type Store interface {
	UserStore
	ShiftTypeStore
	VehicleStore
	AssignmentStore
	DutyStore
}

// Change describes a write observed on one of the collections.
type Change struct {
	Collection string
	// Date is set for assignment changes.
	Date string
}

// Watcher streams changes made to the store, including writes from other
// processes. Watch blocks until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, fn func(Change)) error
}
