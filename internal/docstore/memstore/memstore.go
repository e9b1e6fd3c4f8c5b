package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Store keeps every collection in memory. It backs DOCSTORE=memory and the
// service tests.
type Store struct {
	mu          sync.Mutex
	users       map[string]domain.User
	shiftTypes  map[string]domain.ShiftType
	vehicles    map[string]domain.Vehicle
	assignments map[string]domain.Assignment
	duty        map[string]domain.DutyEntry

	watchers map[int]func(docstore.Change)
	nextW    int

	now func() time.Time
}

var (
	_ docstore.Store   = (*Store)(nil)
	_ docstore.Watcher = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:       map[string]domain.User{},
		shiftTypes:  map[string]domain.ShiftType{},
		vehicles:    map[string]domain.Vehicle{},
		assignments: map[string]domain.Assignment{},
		duty:        map[string]domain.DutyEntry{},
		watchers:    map[int]func(docstore.Change){},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// PutUser seeds a profile. Profiles are provisioned outside the service.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	s.users[u.UID] = u
	s.mu.Unlock()
	s.notify(docstore.Change{Collection: docstore.CollectionUsers})
}

// PutAssignment stores a as is, which lets tests seed legacy duplicates.
func (s *Store) PutAssignment(a domain.Assignment) {
	s.mu.Lock()
	s.assignments[a.ID] = a
	s.mu.Unlock()
	s.notify(docstore.Change{Collection: docstore.CollectionAssignments, Date: a.Date})
}

func (s *Store) GetUser(_ context.Context, uid string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, u := range s.users {
		if u.Email == email {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Strings(ids)
	u := s.users[ids[0]]
	return &u, nil
}

func (s *Store) ListUsers(_ context.Context, activeOnly bool) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if activeOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].DisplayName), strings.ToLower(out[j].DisplayName)
		if a != b {
			return a < b
		}
		return out[i].UID < out[j].UID
	})
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, uid string, upd docstore.UserUpdate) (*domain.User, error) {
	s.mu.Lock()
	u, ok := s.users[uid]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Role != nil {
		u.Role, u.RoleKnown = *upd.Role, true
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	s.users[uid] = u
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionUsers})
	return &u, nil
}

func (s *Store) ListShiftTypes(_ context.Context) ([]domain.ShiftType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ShiftType, 0, len(s.shiftTypes))
	for _, st := range s.shiftTypes {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetShiftType(_ context.Context, id string) (*domain.ShiftType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.shiftTypes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

func (s *Store) CreateShiftType(_ context.Context, st domain.ShiftType) (*domain.ShiftType, error) {
	s.mu.Lock()
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if _, exists := s.shiftTypes[st.ID]; exists {
		s.mu.Unlock()
		return nil, domain.ErrConflict
	}
	s.shiftTypes[st.ID] = st
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionShiftTypes})
	return &st, nil
}

func (s *Store) UpdateShiftType(_ context.Context, st domain.ShiftType) (*domain.ShiftType, error) {
	s.mu.Lock()
	if _, ok := s.shiftTypes[st.ID]; !ok {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	s.shiftTypes[st.ID] = st
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionShiftTypes})
	return &st, nil
}

func (s *Store) DeleteShiftType(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.shiftTypes[id]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.shiftTypes, id)
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionShiftTypes})
	return nil
}

func (s *Store) ListVehicles(_ context.Context) ([]domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetVehicle(_ context.Context, id string) (*domain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (s *Store) CreateVehicle(_ context.Context, v domain.Vehicle) (*domain.Vehicle, error) {
	s.mu.Lock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if _, exists := s.vehicles[v.ID]; exists {
		s.mu.Unlock()
		return nil, domain.ErrConflict
	}
	s.vehicles[v.ID] = v
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionVehicles})
	return &v, nil
}

func (s *Store) UpdateVehicle(_ context.Context, v domain.Vehicle) (*domain.Vehicle, error) {
	s.mu.Lock()
	if _, ok := s.vehicles[v.ID]; !ok {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	s.vehicles[v.ID] = v
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionVehicles})
	return &v, nil
}

func (s *Store) DeleteVehicle(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.vehicles[id]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.vehicles, id)
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionVehicles})
	return nil
}

func (s *Store) ListAssignments(_ context.Context, from, to string) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.Date >= from && a.Date <= to {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertAssignment runs under the store mutex, so concurrent writers to the
// same cell serialize and the cell keeps a single document.
func (s *Store) UpsertAssignment(_ context.Context, w docstore.AssignmentWrite) (*domain.Assignment, *domain.Assignment, error) {
	s.mu.Lock()
	now := s.now()

	var prev *domain.Assignment
	target := domain.AssignmentID(w.UID, w.Date)
	if existing, ok := s.assignments[target]; ok {
		prev = &existing
	} else if legacy := s.latestForCellLocked(w.UID, w.Date); legacy != nil {
		prev = legacy
		target = legacy.ID
	}

	saved := domain.Assignment{
		ID:          target,
		UID:         w.UID,
		Date:        w.Date,
		ShiftTypeID: w.ShiftTypeID,
		VehicleID:   w.VehicleID,
		Source:      w.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prev != nil {
		saved.CreatedAt = prev.CreatedAt
		if w.VehicleID == "" {
			saved.VehicleID = prev.VehicleID
		}
		prevCopy := *prev
		prev = &prevCopy
	}
	s.assignments[target] = saved
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionAssignments, Date: w.Date})
	return &saved, prev, nil
}

func (s *Store) ClearAssignment(_ context.Context, uid, date string) ([]domain.Assignment, error) {
	s.mu.Lock()
	var removed []domain.Assignment
	for id, a := range s.assignments {
		if a.UID == uid && a.Date == date {
			removed = append(removed, a)
			delete(s.assignments, id)
		}
	}
	s.mu.Unlock()

	if len(removed) == 0 {
		return nil, nil
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	s.notify(docstore.Change{Collection: docstore.CollectionAssignments, Date: date})
	return removed, nil
}

func (s *Store) ListDuty(_ context.Context) ([]domain.DutyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DutyEntry, 0, len(s.duty))
	for _, e := range s.duty {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateDuty(_ context.Context, e domain.DutyEntry) (*domain.DutyEntry, error) {
	s.mu.Lock()
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	s.duty[e.ID] = e
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionDuty})
	return &e, nil
}

func (s *Store) UpdateDuty(_ context.Context, e domain.DutyEntry) (*domain.DutyEntry, error) {
	s.mu.Lock()
	stored, ok := s.duty[e.ID]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	e.CreatedAt, e.CreatedBy = stored.CreatedAt, stored.CreatedBy
	s.duty[e.ID] = e
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionDuty})
	return &e, nil
}

func (s *Store) DeleteDuty(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.duty[id]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.duty, id)
	s.mu.Unlock()

	s.notify(docstore.Change{Collection: docstore.CollectionDuty})
	return nil
}

// Watch registers fn for every subsequent write and blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, fn func(docstore.Change)) error {
	s.mu.Lock()
	id := s.nextW
	s.nextW++
	s.watchers[id] = fn
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	delete(s.watchers, id)
	s.mu.Unlock()
	return nil
}

func (s *Store) latestForCellLocked(uid, date string) *domain.Assignment {
	var best *domain.Assignment
	for _, a := range s.assignments {
		if a.UID != uid || a.Date != date {
			continue
		}
		if best == nil || a.UpdatedAt.After(best.UpdatedAt) {
			cp := a
			best = &cp
		}
	}
	return best
}

func (s *Store) notify(ch docstore.Change) {
	s.mu.Lock()
	fns := make([]func(docstore.Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
