package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kt-primus/einsatzplanung/internal/docstore"
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Store adapts a Cloud Firestore client to docstore.Store. Every document is
// decoded through the docstore decode functions.
type Store struct {
	client *firestore.Client
}

var (
	_ docstore.Store   = (*Store)(nil)
	_ docstore.Watcher = (*Store)(nil)
)

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

func (s *Store) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	snap, err := s.col(docstore.CollectionUsers).Doc(uid).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	u := docstore.DecodeUser(snap.Ref.ID, snap.Data())
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	docs, err := s.col(docstore.CollectionUsers).Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	u := docstore.DecodeUser(docs[0].Ref.ID, docs[0].Data())
	return &u, nil
}

// ListUsers reads the whole collection. Legacy profiles lack displayName and
// isActive, so filtering and ordering happen after decoding.
func (s *Store) ListUsers(ctx context.Context, activeOnly bool) ([]domain.User, error) {
	docs, err := s.col(docstore.CollectionUsers).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		u := docstore.DecodeUser(d.Ref.ID, d.Data())
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

func (s *Store) UpdateUser(ctx context.Context, uid string, upd docstore.UserUpdate) (*domain.User, error) {
	ref := s.col(docstore.CollectionUsers).Doc(uid)
	fields := docstore.EncodeUserUpdate(upd)
	if len(fields) > 0 {
		updates := make([]firestore.Update, 0, len(fields))
		for path, v := range fields {
			updates = append(updates, firestore.Update{Path: path, Value: v})
		}
		if _, err := ref.Update(ctx, updates); err != nil {
			return nil, mapErr(err)
		}
	}
	return s.GetUser(ctx, uid)
}

func (s *Store) ListShiftTypes(ctx context.Context) ([]domain.ShiftType, error) {
	docs, err := s.col(docstore.CollectionShiftTypes).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.ShiftType, 0, len(docs))
	for _, d := range docs {
		out = append(out, docstore.DecodeShiftType(d.Ref.ID, d.Data()))
	}
	return out, nil
}

func (s *Store) GetShiftType(ctx context.Context, id string) (*domain.ShiftType, error) {
	snap, err := s.col(docstore.CollectionShiftTypes).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	st := docstore.DecodeShiftType(snap.Ref.ID, snap.Data())
	return &st, nil
}

func (s *Store) CreateShiftType(ctx context.Context, st domain.ShiftType) (*domain.ShiftType, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if _, err := s.col(docstore.CollectionShiftTypes).Doc(st.ID).Create(ctx, docstore.EncodeShiftType(st)); err != nil {
		return nil, mapErr(err)
	}
	return &st, nil
}

func (s *Store) UpdateShiftType(ctx context.Context, st domain.ShiftType) (*domain.ShiftType, error) {
	ref := s.col(docstore.CollectionShiftTypes).Doc(st.ID)
	if err := s.replaceExisting(ctx, ref, docstore.EncodeShiftType(st)); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) DeleteShiftType(ctx context.Context, id string) error {
	_, err := s.col(docstore.CollectionShiftTypes).Doc(id).Delete(ctx, firestore.Exists)
	return mapErr(err)
}

func (s *Store) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	docs, err := s.col(docstore.CollectionVehicles).OrderBy("name", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Vehicle, 0, len(docs))
	for _, d := range docs {
		out = append(out, docstore.DecodeVehicle(d.Ref.ID, d.Data()))
	}
	return out, nil
}

func (s *Store) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	snap, err := s.col(docstore.CollectionVehicles).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	v := docstore.DecodeVehicle(snap.Ref.ID, snap.Data())
	return &v, nil
}

func (s *Store) CreateVehicle(ctx context.Context, v domain.Vehicle) (*domain.Vehicle, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if _, err := s.col(docstore.CollectionVehicles).Doc(v.ID).Create(ctx, docstore.EncodeVehicle(v)); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, v domain.Vehicle) (*domain.Vehicle, error) {
	ref := s.col(docstore.CollectionVehicles).Doc(v.ID)
	if err := s.replaceExisting(ctx, ref, docstore.EncodeVehicle(v)); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	_, err := s.col(docstore.CollectionVehicles).Doc(id).Delete(ctx, firestore.Exists)
	return mapErr(err)
}

func (s *Store) ListAssignments(ctx context.Context, from, to string) ([]domain.Assignment, error) {
	docs, err := s.col(docstore.CollectionAssignments).
		Where("date", ">=", from).
		Where("date", "<=", to).
		OrderBy("date", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Assignment, 0, len(docs))
	for _, d := range docs {
		out = append(out, docstore.DecodeAssignment(d.Ref.ID, d.Data()))
	}
	return out, nil
}

// UpsertAssignment reads and writes the cell inside one transaction keyed by
// the composite id. A cell that only has legacy random-id documents is
// updated on the most recent of them so its id stays stable.
func (s *Store) UpsertAssignment(ctx context.Context, w docstore.AssignmentWrite) (*domain.Assignment, *domain.Assignment, error) {
	col := s.col(docstore.CollectionAssignments)
	var (
		prev   *domain.Assignment
		target *firestore.DocumentRef
	)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		prev, target = nil, col.Doc(domain.AssignmentID(w.UID, w.Date))

		snap, err := tx.Get(target)
		switch {
		case err == nil:
			a := docstore.DecodeAssignment(snap.Ref.ID, snap.Data())
			prev = &a
		case status.Code(err) == codes.NotFound:
			legacy, err := tx.Documents(col.Where("uid", "==", w.UID).Where("date", "==", w.Date)).GetAll()
			if err != nil {
				return err
			}
			for _, d := range legacy {
				a := docstore.DecodeAssignment(d.Ref.ID, d.Data())
				if prev == nil || a.UpdatedAt.After(prev.UpdatedAt) {
					prev, target = &a, d.Ref
				}
			}
		default:
			return err
		}

		if prev != nil {
			updates := []firestore.Update{
				{Path: "shiftTypeId", Value: w.ShiftTypeID},
				{Path: "source", Value: w.Source},
				{Path: "updatedAt", Value: firestore.ServerTimestamp},
			}
			if w.VehicleID != "" {
				updates = append(updates, firestore.Update{Path: "vehicleId", Value: w.VehicleID})
			}
			return tx.Update(target, updates)
		}

		doc := map[string]any{
			"uid":         w.UID,
			"date":        w.Date,
			"shiftTypeId": w.ShiftTypeID,
			"source":      w.Source,
			"createdAt":   firestore.ServerTimestamp,
			"updatedAt":   firestore.ServerTimestamp,
		}
		if w.VehicleID != "" {
			doc["vehicleId"] = w.VehicleID
		}
		return tx.Create(target, doc)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upsert assignment %s/%s: %w", w.UID, w.Date, mapErr(err))
	}

	snap, err := target.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read back assignment %s: %w", target.ID, mapErr(err))
	}
	saved := docstore.DecodeAssignment(snap.Ref.ID, snap.Data())
	return &saved, prev, nil
}

func (s *Store) ClearAssignment(ctx context.Context, uid, date string) ([]domain.Assignment, error) {
	col := s.col(docstore.CollectionAssignments)
	var removed []domain.Assignment

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		removed = nil
		docs, err := tx.Documents(col.Where("uid", "==", uid).Where("date", "==", date)).GetAll()
		if err != nil {
			return err
		}
		for _, d := range docs {
			removed = append(removed, docstore.DecodeAssignment(d.Ref.ID, d.Data()))
		}
		for _, d := range docs {
			if err := tx.Delete(d.Ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clear assignment %s/%s: %w", uid, date, mapErr(err))
	}
	return removed, nil
}

func (s *Store) ListDuty(ctx context.Context) ([]domain.DutyEntry, error) {
	docs, err := s.col(docstore.CollectionDuty).OrderBy("date", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.DutyEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, docstore.DecodeDutyEntry(d.Ref.ID, d.Data()))
	}
	return out, nil
}

// CreateDuty stores the entry under a generated id with a server-side
// creation time and reads it back.
func (s *Store) CreateDuty(ctx context.Context, e domain.DutyEntry) (*domain.DutyEntry, error) {
	ref := s.col(docstore.CollectionDuty).NewDoc()
	doc := docstore.EncodeDutyEntry(e)
	doc["createdAt"] = firestore.ServerTimestamp
	if e.CreatedBy != "" {
		doc["createdBy"] = e.CreatedBy
	} else {
		doc["createdBy"] = nil
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create duty entry: %w", mapErr(err))
	}
	return s.getDuty(ctx, ref)
}

func (s *Store) UpdateDuty(ctx context.Context, e domain.DutyEntry) (*domain.DutyEntry, error) {
	ref := s.col(docstore.CollectionDuty).Doc(e.ID)
	fields := docstore.EncodeDutyEntry(e)
	updates := make([]firestore.Update, 0, len(fields))
	for path, v := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return nil, mapErr(err)
	}
	return s.getDuty(ctx, ref)
}

func (s *Store) DeleteDuty(ctx context.Context, id string) error {
	_, err := s.col(docstore.CollectionDuty).Doc(id).Delete(ctx, firestore.Exists)
	return mapErr(err)
}

func (s *Store) getDuty(ctx context.Context, ref *firestore.DocumentRef) (*domain.DutyEntry, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read back duty entry %s: %w", ref.ID, mapErr(err))
	}
	e := docstore.DecodeDutyEntry(snap.Ref.ID, snap.Data())
	return &e, nil
}

// Watch follows the collections with snapshot listeners and reports
// every change after the initial snapshot.
func (s *Store) Watch(ctx context.Context, fn func(docstore.Change)) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range []string{
		docstore.CollectionUsers,
		docstore.CollectionShiftTypes,
		docstore.CollectionVehicles,
		docstore.CollectionAssignments,
		docstore.CollectionDuty,
	} {
		g.Go(func() error { return s.watchCollection(ctx, name, fn) })
	}
	return g.Wait()
}

func (s *Store) watchCollection(ctx context.Context, name string, fn func(docstore.Change)) error {
	it := s.col(name).Snapshots(ctx)
	defer it.Stop()

	first := true
	for {
		qs, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("watch %s: %w", name, err)
		}
		if first {
			first = false
			continue
		}
		for _, ch := range qs.Changes {
			change := docstore.Change{Collection: name}
			if name == docstore.CollectionAssignments && ch.Doc != nil {
				if d, ok := ch.Doc.Data()["date"].(string); ok {
					change.Date = d
				}
			}
			fn(change)
		}
	}
}

func (s *Store) replaceExisting(ctx context.Context, ref *firestore.DocumentRef, data map[string]any) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, data)
	})
	return mapErr(err)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return domain.ErrNotFound
	case codes.AlreadyExists:
		return domain.ErrConflict
	}
	return err
}
