package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/user-admin/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID   map[uint]domain.User
	nextID uint

	createErr error
	updateErr error
	listErr   error

	createCalls int
	updateCalls int
	pwUpdates   map[uint]string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:      make(map[uint]domain.User),
		nextID:    1,
		pwUpdates: make(map[uint]string),
	}
}

func cloneUser(u domain.User) domain.User {
	clone := u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return clone
}

// put stores a user verbatim, bypassing all checks.
func (r *stubUserRepo) put(u domain.User) domain.User {
	if u.ID == 0 {
		u.ID = r.nextID
	}
	if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	r.byID[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (r *stubUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.createCalls++
	if r.createErr != nil {
		return domain.User{}, r.createErr
	}
	if exists, _ := r.ExistsByEmail(ctx, u.Email); exists {
		return domain.User{}, domain.ErrUserExists
	}
	u.ID = 0
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	return r.put(u), nil
}

func (r *stubUserRepo) Update(_ context.Context, u domain.User) (domain.User, error) {
	r.updateCalls++
	if r.updateErr != nil {
		return domain.User{}, r.updateErr
	}
	if _, ok := r.byID[u.ID]; !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	r.byID[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	r.byID[id] = u
	r.pwUpdates[id] = hash
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubRoleRepo struct {
	byName  map[string]domain.Role
	nextID  uint
	findErr error
	// findFailures limits findErr to that many lookups; zero means every lookup.
	findFailures int

	createCalls int
}

func newStubRoleRepo(names ...string) *stubRoleRepo {
	r := &stubRoleRepo{byName: make(map[string]domain.Role), nextID: 1}
	for _, n := range names {
		_, _ = r.Create(context.Background(), domain.Role{Name: n})
	}
	r.createCalls = 0
	return r
}

func (r *stubRoleRepo) FindByName(_ context.Context, name string) (domain.Role, error) {
	if r.findErr != nil {
		switch {
		case r.findFailures == 0:
			return domain.Role{}, r.findErr
		case r.findFailures > 0:
			r.findFailures--
			if r.findFailures == 0 {
				r.findFailures = -1
			}
			return domain.Role{}, r.findErr
		}
	}
	role, ok := r.byName[name]
	if !ok {
		return domain.Role{}, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *stubRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(r.byName))
	for _, role := range r.byName {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubRoleRepo) Create(_ context.Context, role domain.Role) (domain.Role, error) {
	r.createCalls++
	if _, ok := r.byName[role.Name]; ok {
		return domain.Role{}, fmt.Errorf("duplicate role %s", role.Name)
	}
	role.ID = r.nextID
	r.nextID++
	r.byName[role.Name] = role
	return role, nil
}

func (r *stubRoleRepo) mustGet(t *testing.T, name string) domain.Role {
	t.Helper()
	role, ok := r.byName[name]
	if !ok {
		t.Fatalf("role %s not seeded", name)
	}
	return role
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Duration
	saveErr  error
	delAll   []uint
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]time.Duration)}
}

func sessionKey(uid uint, sid string) string {
	return fmt.Sprintf("%d:%s", uid, sid)
}

func (s *stubSessionStore) Save(_ context.Context, uid uint, sid string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[sessionKey(uid, sid)] = ttl
	return nil
}

func (s *stubSessionStore) Exists(_ context.Context, uid uint, sid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionKey(uid, sid)]
	return ok, nil
}

func (s *stubSessionStore) Delete(_ context.Context, uid uint, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(uid, sid))
	return nil
}

func (s *stubSessionStore) DeleteAll(_ context.Context, uid uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delAll = append(s.delAll, uid)
	prefix := fmt.Sprintf("%d:", uid)
	for k := range s.sessions {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.sessions, k)
		}
	}
	return nil
}

type recordingAudit struct {
	events []domain.UserEvent
}

func (a *recordingAudit) Record(e domain.UserEvent) {
	a.events = append(a.events, e)
}

func (a *recordingAudit) last(t *testing.T) domain.UserEvent {
	t.Helper()
	if len(a.events) == 0 {
		t.Fatalf("expected an audit event, got none")
	}
	return a.events[len(a.events)-1]
}

// newTestEncoder uses the minimum cost to keep the suite fast.
func newTestEncoder(t *testing.T) *PasswordEncoder {
	t.Helper()
	enc, err := NewPasswordEncoder(bcrypt.MinCost, DefaultPasswords)
	if err != nil {
		t.Fatalf("NewPasswordEncoder: %v", err)
	}
	return enc
}

func mustHash(t *testing.T, enc *PasswordEncoder, plain string) string {
	t.Helper()
	h, err := enc.Encode(plain)
	if err != nil {
		t.Fatalf("Encode(%q): %v", plain, err)
	}
	return h
}
