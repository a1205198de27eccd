package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aau-transit/bustrack/internal/model"
)

// MemoryStore keeps everything in process memory. The server falls back to it when no
// DATABASE_URL is configured, and handler tests run against it.
type MemoryStore struct {
	mu sync.RWMutex

	accounts     map[uuid.UUID]model.Account
	roles        map[uuid.UUID]model.Role
	accountRoles map[uuid.UUID]map[uuid.UUID]struct{}
	routes       map[uuid.UUID]model.Route
	stops        map[uuid.UUID]model.Stop
	buses        map[uuid.UUID]model.Bus
	trips        map[uuid.UUID]model.Trip
	locations    []model.BusLocation

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store seeded with model.DefaultRoles.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		accounts:     map[uuid.UUID]model.Account{},
		roles:        map[uuid.UUID]model.Role{},
		accountRoles: map[uuid.UUID]map[uuid.UUID]struct{}{},
		routes:       map[uuid.UUID]model.Route{},
		stops:        map[uuid.UUID]model.Stop{},
		buses:        map[uuid.UUID]model.Bus{},
		trips:        map[uuid.UUID]model.Trip{},
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, r := range model.DefaultRoles {
		r.Permissions = append([]string(nil), r.Permissions...)
		sort.Strings(r.Permissions)
		m.roles[r.ID] = r
	}
	return m
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) emailTaken(email string, except uuid.UUID) bool {
	for id, a := range m.accounts {
		if id != except && !a.IsDeleted && a.Email == email {
			return true
		}
	}
	return false
}

func (m *MemoryStore) studentNumberTaken(number *string, except uuid.UUID) bool {
	if number == nil {
		return false
	}
	for id, a := range m.accounts {
		if id != except && !a.IsDeleted && a.StudentNumber != nil && *a.StudentNumber == *number {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateAccount(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.Email = strings.ToLower(a.Email)
	if m.emailTaken(a.Email, uuid.Nil) || m.studentNumberTaken(a.StudentNumber, uuid.Nil) {
		return ErrConflict
	}
	if a.AdminID != nil {
		if _, ok := m.accounts[*a.AdminID]; !ok {
			return ErrNotFound
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := m.now()
	a.IsActive, a.IsDeleted = true, false
	a.CreatedAt, a.UpdatedAt, a.DeletedAt = now, now, nil
	m.accounts[a.ID] = *a
	return nil
}

func (m *MemoryStore) GetAccountByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok || a.IsDeleted {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) GetAccountByEmail(_ context.Context, email string, kind model.AccountKind) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, a := range m.accounts {
		if a.IsDeleted || a.Email != email {
			continue
		}
		if kind != "" && a.Kind != kind {
			continue
		}
		return &a, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListAccounts(_ context.Context, kind model.AccountKind) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Account{}
	for _, a := range m.accounts {
		if a.IsDeleted || (kind != "" && a.Kind != kind) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) UpdateAccount(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.accounts[a.ID]
	if !ok || existing.IsDeleted {
		return ErrNotFound
	}
	a.Email = strings.ToLower(a.Email)
	if m.emailTaken(a.Email, a.ID) || m.studentNumberTaken(a.StudentNumber, a.ID) {
		return ErrConflict
	}
	existing.Name = a.Name
	existing.Email = a.Email
	existing.HashedPassword = a.HashedPassword
	existing.BusNumber = a.BusNumber
	existing.Phone = a.Phone
	existing.StudentNumber = a.StudentNumber
	existing.Major = a.Major
	existing.IsActive = a.IsActive
	existing.UpdatedAt = m.now()
	m.accounts[a.ID] = existing
	*a = existing
	return nil
}

func (m *MemoryStore) SoftDeleteAccount(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok || a.IsDeleted {
		return ErrNotFound
	}
	now := m.now()
	a.IsDeleted, a.IsActive = true, false
	a.DeletedAt, a.UpdatedAt = &now, now
	m.accounts[id] = a
	return nil
}

func (m *MemoryStore) ListRoles(context.Context) ([]model.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) GetRole(_ context.Context, id uuid.UUID) (*model.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) AssignRole(_ context.Context, accountID, roleID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[accountID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.roles[roleID]; !ok {
		return ErrNotFound
	}
	if m.accountRoles[accountID] == nil {
		m.accountRoles[accountID] = map[uuid.UUID]struct{}{}
	}
	m.accountRoles[accountID][roleID] = struct{}{}
	return nil
}

func (m *MemoryStore) UnassignRole(_ context.Context, accountID, roleID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accountRoles[accountID][roleID]; !ok {
		return ErrNotFound
	}
	delete(m.accountRoles[accountID], roleID)
	return nil
}

func (m *MemoryStore) ListAccountPermissions(_ context.Context, accountID uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]struct{}{}
	for roleID := range m.accountRoles[accountID] {
		for _, p := range m.roles[roleID].Permissions {
			seen[p] = struct{}{}
		}
	}
	perms := make([]string, 0, len(seen))
	for p := range seen {
		perms = append(perms, p)
	}
	sort.Strings(perms)
	return perms, nil
}

func (m *MemoryStore) CreateRoute(_ context.Context, r *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := m.now()
	r.CreatedAt, r.UpdatedAt, r.DeletedAt = now, now, nil
	m.routes[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetRoute(_ context.Context, id uuid.UUID) (*model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.routes[id]
	if !ok || r.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) ListRoutes(_ context.Context, onlyActive bool) ([]model.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Route{}
	for _, r := range m.routes {
		if r.DeletedAt != nil || (onlyActive && r.Status != model.StatusActive) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryStore) UpdateRoute(_ context.Context, r *model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.routes[r.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	existing.Name = r.Name
	existing.Description = r.Description
	existing.Status = r.Status
	existing.MapURL = r.MapURL
	existing.UpdatedAt = m.now()
	m.routes[r.ID] = existing
	*r = existing
	return nil
}

func (m *MemoryStore) DeleteRoute(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.routes[id]
	if !ok || r.DeletedAt != nil {
		return ErrNotFound
	}
	now := m.now()
	r.DeletedAt, r.UpdatedAt = &now, now
	m.routes[id] = r
	return nil
}

func (m *MemoryStore) CreateStop(_ context.Context, s *model.Stop) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.routes[s.RouteID]; !ok {
		return ErrNotFound
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := m.now()
	s.CreatedAt, s.UpdatedAt, s.DeletedAt = now, now, nil
	m.stops[s.ID] = *s
	return nil
}

func (m *MemoryStore) ListStops(_ context.Context, routeID uuid.UUID) ([]model.Stop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Stop{}
	for _, s := range m.stops {
		if s.RouteID == routeID && s.DeletedAt == nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence == out[j].Sequence {
			return out[i].Name < out[j].Name
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (m *MemoryStore) DeleteStop(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stops[id]
	if !ok || s.DeletedAt != nil {
		return ErrNotFound
	}
	now := m.now()
	s.DeletedAt, s.UpdatedAt = &now, now
	m.stops[id] = s
	return nil
}

func (m *MemoryStore) busNumberTaken(number int, except uuid.UUID) bool {
	for id, b := range m.buses {
		if id != except && b.DeletedAt == nil && b.BusNumber == number {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateBus(_ context.Context, b *model.Bus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busNumberTaken(b.BusNumber, uuid.Nil) {
		return ErrConflict
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := m.now()
	b.CreatedAt, b.UpdatedAt, b.DeletedAt = now, now, nil
	m.buses[b.ID] = *b
	return nil
}

func (m *MemoryStore) GetBus(_ context.Context, id uuid.UUID) (*model.Bus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.buses[id]
	if !ok || b.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *MemoryStore) GetBusByNumber(_ context.Context, number int) (*model.Bus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.buses {
		if b.DeletedAt == nil && b.BusNumber == number {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListBuses(context.Context) ([]model.Bus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Bus{}
	for _, b := range m.buses {
		if b.DeletedAt == nil {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusNumber < out[j].BusNumber })
	return out, nil
}

func (m *MemoryStore) UpdateBus(_ context.Context, b *model.Bus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.buses[b.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	if m.busNumberTaken(b.BusNumber, b.ID) {
		return ErrConflict
	}
	existing.BusNumber = b.BusNumber
	existing.StartTime = b.StartTime
	existing.EndTime = b.EndTime
	existing.Status = b.Status
	existing.UpdatedAt = m.now()
	m.buses[b.ID] = existing
	*b = existing
	return nil
}

func (m *MemoryStore) DeleteBus(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buses[id]
	if !ok || b.DeletedAt != nil {
		return ErrNotFound
	}
	now := m.now()
	b.DeletedAt, b.UpdatedAt = &now, now
	m.buses[id] = b
	return nil
}

func (m *MemoryStore) CreateTrip(_ context.Context, t *model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, routeOK := m.routes[t.RouteID]
	_, busOK := m.buses[t.BusID]
	_, driverOK := m.accounts[t.DriverID]
	if !routeOK || !busOK || !driverOK {
		return ErrNotFound
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := m.now()
	t.ReportedAt, t.CreatedAt, t.UpdatedAt, t.DeletedAt = now, now, now, nil
	m.trips[t.ID] = *t
	return nil
}

func (m *MemoryStore) GetTrip(_ context.Context, id uuid.UUID) (*model.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trips[id]
	if !ok || t.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStore) ListTrips(_ context.Context, driverID uuid.UUID) ([]model.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Trip{}
	for _, t := range m.trips {
		if t.DeletedAt != nil || (driverID != uuid.Nil && t.DriverID != driverID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) UpdateTripPosition(_ context.Context, t *model.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.trips[t.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	existing.Latitude = t.Latitude
	existing.Longitude = t.Longitude
	existing.Status = t.Status
	existing.ReportedAt = t.ReportedAt
	existing.UpdatedAt = m.now()
	m.trips[t.ID] = existing
	*t = existing
	return nil
}

func (m *MemoryStore) RecordBusLocation(_ context.Context, l *model.BusLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[l.TripID]; !ok {
		return ErrNotFound
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = m.now()
	m.locations = append(m.locations, *l)
	return nil
}

// BusLocations returns every recorded location report for a trip, oldest first.
func (m *MemoryStore) BusLocations(tripID uuid.UUID) []model.BusLocation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.BusLocation
	for _, l := range m.locations {
		if l.TripID == tripID {
			out = append(out, l)
		}
	}
	return out
}
