// In-memory implementations of the licensing repositories. They back
// the service tests and local development without a database, honoring
// the same conditional-insert contracts as the postgres repositories.
package memstorage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ainside/licensing-api/internal/domain/adminsession"
	"github.com/ainside/licensing-api/internal/domain/audit"
	"github.com/ainside/licensing-api/internal/domain/connection"
	"github.com/ainside/licensing-api/internal/domain/devicelock"
	"github.com/ainside/licensing-api/internal/domain/purchase"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/google/uuid"
)

type PurchaseRepository struct {
	mu        sync.RWMutex
	purchases map[string]*purchase.Purchase
}

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{purchases: make(map[string]*purchase.Purchase)}
}

var _ purchase.Repository = (*PurchaseRepository)(nil)

func (r *PurchaseRepository) Seed(p *purchase.Purchase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.purchases[p.OrderID] = &cp
}

func (r *PurchaseRepository) FindByOrderID(ctx context.Context, orderID string) (*purchase.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.purchases[orderID]
	if !ok {
		return nil, purchase.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type RegistrationRepository struct {
	mu   sync.RWMutex
	regs map[string]*registration.Registration
}

func NewRegistrationRepository() *RegistrationRepository {
	return &RegistrationRepository{regs: make(map[string]*registration.Registration)}
}

var _ registration.Repository = (*RegistrationRepository)(nil)

func (r *RegistrationRepository) Create(ctx context.Context, reg *registration.Registration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.regs[reg.OrderID]; exists {
		return false, nil
	}
	cp := *reg
	cp.ID = uuid.New()
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.regs[reg.OrderID] = &cp
	return true, nil
}

func (r *RegistrationRepository) FindByOrderID(ctx context.Context, orderID string) (*registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[orderID]
	if !ok {
		return nil, registration.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *RegistrationRepository) FindActiveByHWID(ctx context.Context, hwid string) (*registration.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.regs {
		if reg.HWID == hwid && reg.Status == registration.StatusActive {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, registration.ErrNotFound
}

func (r *RegistrationRepository) Rebind(ctx context.Context, orderID, newHWID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[orderID]
	if !ok {
		return registration.ErrNotFound
	}
	reg.HWID = newHWID
	reg.Status = registration.StatusActive
	reg.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *RegistrationRepository) List(ctx context.Context, params registration.ListParams) ([]*registration.Registration, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*registration.Registration, 0)
	for _, reg := range r.regs {
		if params.Status != nil && reg.Status != *params.Status {
			continue
		}
		if params.Email != nil && !strings.EqualFold(reg.Email, *params.Email) {
			continue
		}
		cp := *reg
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if params.Offset > 0 {
		if params.Offset >= len(matched) {
			return []*registration.Registration{}, total, nil
		}
		matched = matched[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(matched) {
		matched = matched[:params.Limit]
	}
	return matched, total, nil
}

type DeviceLockRepository struct {
	mu    sync.RWMutex
	locks map[string]*devicelock.DeviceLock
}

func NewDeviceLockRepository() *DeviceLockRepository {
	return &DeviceLockRepository{locks: make(map[string]*devicelock.DeviceLock)}
}

var _ devicelock.Repository = (*DeviceLockRepository)(nil)

func (r *DeviceLockRepository) Insert(ctx context.Context, lock *devicelock.DeviceLock) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.locks[lock.HWID]; exists {
		return false, nil
	}
	cp := *lock
	cp.CreatedAt = time.Now().UTC()
	r.locks[lock.HWID] = &cp
	return true, nil
}

func (r *DeviceLockRepository) FindByHWID(ctx context.Context, hwid string) (*devicelock.DeviceLock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lock, ok := r.locks[hwid]
	if !ok {
		return nil, devicelock.ErrNotFound
	}
	cp := *lock
	return &cp, nil
}

func (r *DeviceLockRepository) Revoke(ctx context.Context, hwid, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[hwid]
	if !ok || lock.RevokedAt != nil {
		return devicelock.ErrNotFound
	}
	lock.RevokedAt = &at
	lock.RevokedReason = &reason
	return nil
}

type ConnectionRepository struct {
	mu    sync.RWMutex
	conns map[string]*connection.Connection
}

func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{conns: make(map[string]*connection.Connection)}
}

var _ connection.Repository = (*ConnectionRepository)(nil)

func (r *ConnectionRepository) Upsert(ctx context.Context, conn *connection.Connection) (*connection.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.conns[conn.HWID]
	if !ok {
		cp := connection.Connection{
			HWID:                conn.HWID,
			PlanName:            conn.PlanName,
			StrategiesActive:    append([]string{}, conn.StrategiesActive...),
			StrategiesAvailable: append([]string{}, connection.DefaultStrategies...),
			Online:              true,
			LastSeen:            now,
			UpdatedAt:           now,
		}
		if cp.PlanName == "" {
			cp.PlanName = connection.DefaultPlanName
		}
		r.conns[conn.HWID] = &cp
		out := cp
		return &out, nil
	}

	if conn.PlanName != "" {
		existing.PlanName = conn.PlanName
	}
	if len(conn.StrategiesActive) > 0 {
		existing.StrategiesActive = append([]string{}, conn.StrategiesActive...)
	}
	existing.Online = true
	existing.LastSeen = now
	existing.UpdatedAt = now
	out := *existing
	return &out, nil
}

func (r *ConnectionRepository) MarkOfflineBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, conn := range r.conns {
		if conn.Online && conn.LastSeen.Before(cutoff) {
			conn.Online = false
			conn.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

type AuditRepository struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

var _ audit.Repository = (*AuditRepository)(nil)

func (r *AuditRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *AuditRepository) Entries() []*audit.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*audit.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*adminsession.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*adminsession.Session)}
}

var _ adminsession.Repository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, session *adminsession.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.sessions[session.Token] = &cp
	return nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*adminsession.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, adminsession.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}
