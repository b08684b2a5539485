package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventmanager/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory database shared by the fake repositories below.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	events map[string]*domain.Event
	regs   map[string]*domain.EventRegistration

	userErr        error
	getOrCreateErr error
	updates        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*domain.User),
		events: make(map[string]*domain.Event),
		regs:   make(map[string]*domain.EventRegistration),
	}
}

func (s *fakeStore) addUser(email string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{ID: uuid.NewString(), Email: email, Name: strings.Split(email, "@")[0]}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addEvent(title, organizerID string, date time.Time) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := domain.NewEvent(title, "desc", "Berlin", organizerID, date, time.Now(), time.Now())
	e.ID = uuid.NewString()
	s.events[e.ID] = e
	return e
}

func (s *fakeStore) addRegistration(eventID, userID string, status domain.RegistrationStatus) *domain.EventRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := domain.NewEventRegistration(eventID, userID, status)
	reg.ID = uuid.NewString()
	reg.RegisteredAt = time.Now()
	s.regs[reg.ID] = reg
	return reg
}

func (s *fakeStore) registrationsFor(eventID string) []*domain.EventRegistration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.EventRegistration
	for _, r := range s.regs {
		if r.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

func (s *fakeStore) findRegLocked(eventID, userID string) *domain.EventRegistration {
	for _, r := range s.regs {
		if r.EventID == eventID && r.UserID == userID {
			return r
		}
	}
	return nil
}

func (s *fakeStore) detailLocked(r *domain.EventRegistration) *domain.RegistrationDetail {
	d := &domain.RegistrationDetail{EventRegistration: *r}
	if u, ok := s.users[r.UserID]; ok {
		d.UserEmail = u.Email
	}
	if e, ok := s.events[r.EventID]; ok {
		d.EventTitle = e.Title
		d.EventDate = e.Date
	}
	return d
}

// fakeTransactor restores the store when fn fails and runs after-commit hooks when it succeeds.
type fakeTransactor struct{ *fakeStore }

func (f fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	events := make(map[string]*domain.Event, len(f.events))
	for id, e := range f.events {
		cp := *e
		events[id] = &cp
	}
	regs := make(map[string]*domain.EventRegistration, len(f.regs))
	for id, r := range f.regs {
		cp := *r
		regs[id] = &cp
	}
	f.mu.Unlock()

	txCtx, runHooks := domain.WithAfterCommit(ctx)
	if err := fn(txCtx); err != nil {
		f.mu.Lock()
		f.events, f.regs = events, regs
		f.mu.Unlock()
		return err
	}
	runHooks()
	return nil
}

type fakeUserRepo struct{ *fakeStore }

func (f fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type fakeEventRepo struct {
	*fakeStore
	createErr error
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.NewString()
	f.events[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) LockByID(ctx context.Context, id string) (*domain.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Event, 0)
	for _, e := range f.events {
		if filter.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Date != nil && !filter.Date.Contains(e.Date) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, len(out), nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, u domain.EventUpdate) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.updates++
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) DeleteReturningRegistrants(ctx context.Context, id string) (*domain.DeletedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	emails := make([]string, 0)
	for regID, r := range f.regs {
		if r.EventID != id {
			continue
		}
		if u, ok := f.users[r.UserID]; ok {
			emails = append(emails, u.Email)
		}
		delete(f.regs, regID)
	}
	sort.Strings(emails)
	delete(f.events, id)
	return &domain.DeletedEvent{Event: e, RegistrantEmails: emails}, nil
}

type fakeRegistrationRepo struct{ *fakeStore }

func (f fakeRegistrationRepo) GetOrCreate(ctx context.Context, reg *domain.EventRegistration) (*domain.EventRegistration, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getOrCreateErr != nil {
		return nil, false, f.getOrCreateErr
	}
	if _, ok := f.events[reg.EventID]; !ok {
		return nil, false, domain.ErrNotFound
	}
	if _, ok := f.users[reg.UserID]; !ok {
		return nil, false, domain.ErrNotFound
	}
	if existing := f.findRegLocked(reg.EventID, reg.UserID); existing != nil {
		cp := *existing
		return &cp, false, nil
	}
	reg.ID = uuid.NewString()
	reg.RegisteredAt = time.Now()
	reg.UpdatedAt = reg.RegisteredAt
	stored := *reg
	f.regs[reg.ID] = &stored
	return reg, true, nil
}

func (f fakeRegistrationRepo) Create(ctx context.Context, reg *domain.EventRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[reg.EventID]; !ok {
		return domain.ErrNotFound
	}
	if f.findRegLocked(reg.EventID, reg.UserID) != nil {
		return domain.ErrDuplicateRegistration
	}
	reg.ID = uuid.NewString()
	reg.RegisteredAt = time.Now()
	stored := *reg
	f.regs[reg.ID] = &stored
	return nil
}

func (f fakeRegistrationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.findRegLocked(eventID, userID); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f fakeRegistrationRepo) GetDetailForUser(ctx context.Context, id, userID string) (*domain.RegistrationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return f.detailLocked(r), nil
}

func (f fakeRegistrationRepo) ListDetailsByUserID(ctx context.Context, userID string) ([]*domain.RegistrationDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.RegistrationDetail, 0)
	for _, r := range f.regs {
		if r.UserID == userID {
			out = append(out, f.detailLocked(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (f fakeRegistrationRepo) UpdateStatusForUser(ctx context.Context, id, userID string, status domain.RegistrationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.UserID != userID {
		return domain.ErrNotFound
	}
	r.Status = status
	return nil
}

func (f fakeRegistrationRepo) DeleteForUser(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.regs, id)
	return nil
}

func (f fakeRegistrationRepo) ListRegistrantEmails(ctx context.Context, eventID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := make([]string, 0)
	for _, r := range f.regs {
		if r.EventID != eventID {
			continue
		}
		if u, ok := f.users[r.UserID]; ok {
			emails = append(emails, u.Email)
		}
	}
	sort.Strings(emails)
	return emails, nil
}

type notification struct {
	kind string
	args []string
}

// fakeNotifier records every queued notification.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
	err   error
}

func (n *fakeNotifier) record(kind string, args ...string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{kind: kind, args: args})
	return n.err
}

func (n *fakeNotifier) NotifyRegistration(ctx context.Context, userID, eventID string) error {
	return n.record("registration", userID, eventID)
}

func (n *fakeNotifier) NotifyEventDateChanged(ctx context.Context, eventID, oldDate, newDate string) error {
	return n.record("date_changed", eventID, oldDate, newDate)
}

func (n *fakeNotifier) NotifyEventCancelled(ctx context.Context, title, date string, emails []string) error {
	return n.record("cancelled", append([]string{title, date}, emails...)...)
}

func (n *fakeNotifier) byKind(kind string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, c := range n.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

type sentMail struct {
	to      []string
	subject string
	text    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to []string, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: append([]string(nil), to...), subject: subject, text: text})
	return nil
}

// fakeRenderer uses the template name as subject and the data as text body.
type fakeRenderer struct{}

func (fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	body := fmt.Sprintf("%+v", data)
	return templateName, "<p>" + body + "</p>", body, nil
}
