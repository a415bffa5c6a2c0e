package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/userhub/backend/internal/model"
)

// Memory is a process-local store with the same contract as Postgres. It is
// used with STORE=memory and as the fake in tests.
type Memory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]model.User
	byEmail  map[string]uuid.UUID
	sessions map[uuid.UUID]model.Session
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]model.User),
		byEmail:  make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID]model.Session),
		now:      time.Now,
	}
}

func (m *Memory) CreateUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[user.Email]; ok {
		return ErrDuplicateEmail
	}
	now := m.now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *Memory) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.users[id]
	return &user, nil
}

func (m *Memory) ListUsers(ctx context.Context, role model.Role, search string) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	list := []model.User{}
	for _, user := range m.users {
		if user.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(user.Name), needle) &&
			!strings.Contains(strings.ToLower(user.Email), needle) {
			continue
		}
		list = append(list, user)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (m *Memory) UpdateUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.users[user.ID]
	if !ok || current.Role != user.Role {
		return ErrNotFound
	}
	if owner, ok := m.byEmail[user.Email]; ok && owner != user.ID {
		return ErrDuplicateEmail
	}

	delete(m.byEmail, current.Email)
	current.Name = user.Name
	current.Email = user.Email
	current.Image = user.Image
	current.UpdatedAt = m.now()
	m.users[user.ID] = current
	m.byEmail[current.Email] = current.ID

	*user = current
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id uuid.UUID, role model.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok || user.Role != role {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.byEmail, user.Email)
	for sid, session := range m.sessions {
		if session.UserID == id {
			delete(m.sessions, sid)
		}
	}
	return nil
}

func (m *Memory) CreateSession(ctx context.Context, session *model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[session.UserID]; !ok {
		return ErrNotFound
	}
	session.CreatedAt = m.now()
	m.sessions[session.ID] = *session
	return nil
}

func (m *Memory) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (m *Memory) RotateSession(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok || session.RefreshHash != oldHash || !session.Active(m.now()) {
		return ErrNotFound
	}
	session.RefreshHash = newHash
	session.ExpiresAt = expiresAt
	m.sessions[id] = session
	return nil
}

func (m *Memory) RevokeSession(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok || session.RevokedAt != nil {
		return nil
	}
	now := m.now()
	session.RevokedAt = &now
	m.sessions[id] = session
	return nil
}

func (m *Memory) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, session := range m.sessions {
		if session.ExpiresAt.Before(before) || (session.RevokedAt != nil && session.RevokedAt.Before(before)) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
