package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// MemoryStore is an in-memory implementation of all engine repositories.
// It backs the test suites and local development without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	tickets   map[string]*domain.Ticket
	history   map[string][]domain.TicketHistory
	policies  map[string]*domain.SLAPolicy
	calendars map[string]*domain.HolidayCalendar
	rules     []domain.EscalationRule
	roles     map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:   make(map[string]*domain.Ticket),
		history:   make(map[string][]domain.TicketHistory),
		policies:  make(map[string]*domain.SLAPolicy),
		calendars: make(map[string]*domain.HolidayCalendar),
		roles:     make(map[string][]string),
	}
}

// Tickets returns the ticket repository view.
func (m *MemoryStore) Tickets() TicketRepository { return memoryTickets{m} }

// History returns the ticket history repository view.
func (m *MemoryStore) History() TicketHistoryRepository { return memoryHistory{m} }

// Policies returns the policy repository view.
func (m *MemoryStore) Policies() PolicyRepository { return memoryPolicies{m} }

// Holidays returns the holiday repository view.
func (m *MemoryStore) Holidays() HolidayRepository { return memoryHolidays{m} }

// Matrix returns the escalation matrix repository view.
func (m *MemoryStore) Matrix() MatrixRepository { return memoryMatrix{m} }

// Directory returns the user directory view.
func (m *MemoryStore) Directory() UserDirectory { return memoryDirectory{m} }

// SetRoleMembers seeds role membership for tests and local runs.
func (m *MemoryStore) SetRoleMembers(role string, users []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role] = append([]string(nil), users...)
}

type memoryTickets struct{ s *MemoryStore }

var _ TicketRepository = memoryTickets{}

func (r memoryTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now
	clone := *ticket
	r.s.tickets[ticket.ID] = &clone
	return nil
}

func (r memoryTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	r.s.tickets[ticket.ID] = &clone
	return nil
}

func (r memoryTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r memoryTickets) ListActive(ctx context.Context) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range r.s.tickets {
		if ticket.IsActive() {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLADueAt.Before(result[j].SLADueAt) })
	return result, nil
}

func (r memoryTickets) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range r.s.tickets {
		if !matchesFilter(ticket, filter) {
			continue
		}
		result = append(result, *ticket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SLADueAt.Before(result[j].SLADueAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	if filter.BreachState != nil && ticket.BreachState != *filter.BreachState {
		return false
	}
	if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
		return false
	}
	if filter.StoreID != nil && ticket.StoreID != *filter.StoreID {
		return false
	}
	if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

func containsStatus(statuses []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(priorities []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range priorities {
		if candidate == p {
			return true
		}
	}
	return false
}

type memoryHistory struct{ s *MemoryStore }

var _ TicketHistoryRepository = memoryHistory{}

func (r memoryHistory) Create(ctx context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}
	r.s.history[history.TicketID] = append(r.s.history[history.TicketID], *history)
	return nil
}

func (r memoryHistory) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := r.s.history[ticketID]
	result := make([]domain.TicketHistory, len(entries))
	copy(result, entries)
	return result, nil
}

type memoryPolicies struct{ s *MemoryStore }

var _ PolicyRepository = memoryPolicies{}

func (r memoryPolicies) Create(ctx context.Context, policy *domain.SLAPolicy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	now := time.Now()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now
	clone := *policy
	r.s.policies[policy.ID] = &clone
	return nil
}

func (r memoryPolicies) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	policy, ok := r.s.policies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *policy
	return &clone, nil
}

func (r memoryPolicies) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.SLAPolicy
	for _, policy := range r.s.policies {
		result = append(result, *policy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type memoryHolidays struct{ s *MemoryStore }

var _ HolidayRepository = memoryHolidays{}

func (r memoryHolidays) CreateCalendar(ctx context.Context, calendar *domain.HolidayCalendar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if calendar.ID == "" {
		calendar.ID = uuid.NewString()
	}
	if calendar.CreatedAt.IsZero() {
		calendar.CreatedAt = time.Now()
	}
	clone := *calendar
	r.s.calendars[calendar.ID] = &clone
	return nil
}

func (r memoryHolidays) GetCalendar(ctx context.Context, id string) (*domain.HolidayCalendar, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	calendar, ok := r.s.calendars[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *calendar
	return &clone, nil
}

type memoryMatrix struct{ s *MemoryStore }

var _ MatrixRepository = memoryMatrix{}

func (r memoryMatrix) Replace(ctx context.Context, rules []domain.EscalationRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	replaced := make([]domain.EscalationRule, len(rules))
	copy(replaced, rules)
	for i := range replaced {
		if replaced[i].ID == "" {
			replaced[i].ID = uuid.NewString()
		}
		if replaced[i].CreatedAt.IsZero() {
			replaced[i].CreatedAt = time.Now()
		}
	}
	r.s.rules = replaced
	return nil
}

func (r memoryMatrix) List(ctx context.Context) (domain.EscalationMatrix, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matrix := make(domain.EscalationMatrix, len(r.s.rules))
	copy(matrix, r.s.rules)
	sort.Slice(matrix, func(i, j int) bool { return matrix[i].Level < matrix[j].Level })
	return matrix, nil
}

type memoryDirectory struct{ s *MemoryStore }

var _ UserDirectory = memoryDirectory{}

func (r memoryDirectory) ResolveUsersByRole(ctx context.Context, roles []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]struct{})
	var users []string
	for _, role := range roles {
		for _, user := range r.s.roles[role] {
			if _, dup := seen[user]; dup {
				continue
			}
			seen[user] = struct{}{}
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users, nil
}
