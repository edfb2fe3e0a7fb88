// Package memory is a process-local Store. Transactions are serialized on a
// single mutex and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

type data struct {
	accounts     map[uuid.UUID]model.Account
	patients     map[uuid.UUID]model.Patient
	staff        map[uuid.UUID]model.Staff
	slots        map[uuid.UUID]model.Slot
	appointments map[uuid.UUID]model.Appointment
	outbox       map[uuid.UUID]model.OutboxEvent
}

func newData() *data {
	return &data{
		accounts:     make(map[uuid.UUID]model.Account),
		patients:     make(map[uuid.UUID]model.Patient),
		staff:        make(map[uuid.UUID]model.Staff),
		slots:        make(map[uuid.UUID]model.Slot),
		appointments: make(map[uuid.UUID]model.Appointment),
		outbox:       make(map[uuid.UUID]model.OutboxEvent),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.patients {
		c.patients[k] = v
	}
	for k, v := range d.staff {
		c.staff[k] = v
	}
	for k, v := range d.slots {
		c.slots[k] = v
	}
	for k, v := range d.appointments {
		c.appointments[k] = v
	}
	for k, v := range d.outbox {
		c.outbox[k] = v
	}
	return c
}

type Store struct {
	mu   *sync.Mutex
	db   *data
	inTx bool
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, db: newData(), now: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Accounts() repository.AccountRepository         { return &accountRepository{s} }
func (s *Store) Patients() repository.PatientRepository         { return &patientRepository{s} }
func (s *Store) Staff() repository.StaffRepository              { return &staffRepository{s} }
func (s *Store) Slots() repository.SlotRepository               { return &slotRepository{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return &appointmentRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository            { return &outboxRepository{s} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithTx runs fn while holding the store lock. Any error or panic restores
// the state captured before fn ran.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.db.clone()
	tx := &Store{mu: s.mu, db: s.db, inTx: true, now: s.now}

	defer func() {
		if p := recover(); p != nil {
			*s.db = *snapshot
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		*s.db = *snapshot
		return err
	}
	return nil
}

// checkDoctor must be called with the lock held.
func (s *Store) checkDoctor(doctorID uuid.UUID) error {
	st, ok := s.db.staff[doctorID]
	if !ok || !st.IsDoctor() {
		return repository.ErrDoctorRoleRequired
	}
	return nil
}

func stamp(b *model.Base, now time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = now
	b.UpdatedAt = now
}

type accountRepository struct{ s *Store }

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	defer r.s.lock()()
	for _, a := range r.s.db.accounts {
		if sameOptional(a.Email, account.Email) || sameOptional(a.Phone, account.Phone) {
			return repository.ErrDuplicate
		}
	}
	stamp(&account.Base, r.s.now())
	r.s.db.accounts[account.ID] = *account
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	defer r.s.lock()()
	a, ok := r.s.db.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *accountRepository) find(match func(model.Account) bool) (*model.Account, error) {
	for _, a := range r.s.db.accounts {
		if match(a) {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	defer r.s.lock()()
	return r.find(func(a model.Account) bool { return model.StringValue(a.Email) == email })
}

func (r *accountRepository) GetByPhone(ctx context.Context, phone string) (*model.Account, error) {
	defer r.s.lock()()
	return r.find(func(a model.Account) bool { return model.StringValue(a.Phone) == phone })
}

func (r *accountRepository) GetByEmailOrPhone(ctx context.Context, identifier string) (*model.Account, error) {
	defer r.s.lock()()
	return r.find(func(a model.Account) bool {
		return model.StringValue(a.Email) == identifier || model.StringValue(a.Phone) == identifier
	})
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *accountRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	_, err := r.GetByPhone(ctx, phone)
	return err == nil, nil
}

func sameOptional(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

type patientRepository struct{ s *Store }

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()
	if _, ok := r.s.db.accounts[patient.AccountID]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.db.patients {
		if p.AccountID == patient.AccountID {
			return repository.ErrDuplicate
		}
	}
	stamp(&patient.Base, r.s.now())
	r.s.db.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	defer r.s.lock()()
	p, ok := r.s.db.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *patientRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) (*model.Patient, error) {
	defer r.s.lock()()
	for _, p := range r.s.db.patients {
		if p.AccountID == accountID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()
	existing, ok := r.s.db.patients[patient.ID]
	if !ok {
		return repository.ErrNotFound
	}
	patient.AccountID = existing.AccountID
	patient.CreatedAt = existing.CreatedAt
	patient.UpdatedAt = r.s.now()
	r.s.db.patients[patient.ID] = *patient
	return nil
}

type staffRepository struct{ s *Store }

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	defer r.s.lock()()
	for _, st := range r.s.db.staff {
		if st.WorkID == staff.WorkID {
			return repository.ErrDuplicate
		}
	}
	stamp(&staff.Base, r.s.now())
	r.s.db.staff[staff.ID] = *staff
	return nil
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	defer r.s.lock()()
	st, ok := r.s.db.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (r *staffRepository) GetByWorkID(ctx context.Context, workID string) (*model.Staff, error) {
	defer r.s.lock()()
	for _, st := range r.s.db.staff {
		if st.WorkID == workID {
			return &st, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *staffRepository) ExistsByWorkID(ctx context.Context, workID string) (bool, error) {
	_, err := r.GetByWorkID(ctx, workID)
	return err == nil, nil
}

func (r *staffRepository) ListByRole(ctx context.Context, role model.StaffRole) ([]*model.Staff, error) {
	defer r.s.lock()()
	var out []*model.Staff
	for _, st := range r.s.db.staff {
		if st.Role == role {
			st := st
			out = append(out, &st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkID < out[j].WorkID })
	return out, nil
}

type slotRepository struct{ s *Store }

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	defer r.s.lock()()
	if err := r.s.checkDoctor(slot.DoctorID); err != nil {
		return err
	}
	stamp(&slot.Base, r.s.now())
	r.s.db.slots[slot.ID] = *slot
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	defer r.s.lock()()
	sl, ok := r.s.db.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sl, nil
}

func (r *slotRepository) UpdateWindow(ctx context.Context, slot *model.Slot) error {
	defer r.s.lock()()
	existing, ok := r.s.db.slots[slot.ID]
	if !ok || existing.Status != model.SlotStatusAvailable {
		return repository.ErrSlotUnavailable
	}
	if err := r.s.checkDoctor(existing.DoctorID); err != nil {
		return err
	}
	existing.StartTime = slot.StartTime
	existing.EndTime = slot.EndTime
	existing.UpdatedAt = r.s.now()
	r.s.db.slots[slot.ID] = existing
	*slot = existing
	return nil
}

func (r *slotRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	defer r.s.lock()()
	sl, ok := r.s.db.slots[id]
	if !ok || sl.Status != from {
		return repository.ErrSlotUnavailable
	}
	if err := r.s.checkDoctor(sl.DoctorID); err != nil {
		return err
	}
	sl.Status = to
	sl.UpdatedAt = r.s.now()
	r.s.db.slots[id] = sl
	return nil
}

func (r *slotRepository) list(match func(model.Slot) bool) []*model.Slot {
	var out []*model.Slot
	for _, sl := range r.s.db.slots {
		if match(sl) {
			sl := sl
			out = append(out, &sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *slotRepository) ListByStatusInRange(ctx context.Context, status model.SlotStatus, tr model.TimeRange) ([]*model.Slot, error) {
	defer r.s.lock()()
	return r.list(func(sl model.Slot) bool {
		return sl.Status == status && tr.Contains(sl.StartTime)
	}), nil
}

func (r *slotRepository) ListByDoctorInRange(ctx context.Context, doctorID uuid.UUID, tr model.TimeRange) ([]*model.Slot, error) {
	defer r.s.lock()()
	return r.list(func(sl model.Slot) bool {
		return sl.DoctorID == doctorID && tr.Contains(sl.StartTime)
	}), nil
}

type appointmentRepository struct{ s *Store }

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	defer r.s.lock()()
	if _, ok := r.s.db.slots[appointment.SlotID]; !ok {
		return repository.ErrNotFound
	}
	for _, a := range r.s.db.appointments {
		if a.SlotID == appointment.SlotID && a.Status != model.AppointmentStatusCancelled {
			return repository.ErrDuplicate
		}
	}
	stamp(&appointment.Base, r.s.now())
	r.s.db.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	defer r.s.lock()()
	a, ok := r.s.db.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	defer r.s.lock()()
	a, ok := r.s.db.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status != model.AppointmentStatusCancelled {
		for _, other := range r.s.db.appointments {
			if other.ID != id && other.SlotID == a.SlotID && other.Status != model.AppointmentStatusCancelled {
				return repository.ErrDuplicate
			}
		}
	}
	a.Status = status
	a.UpdatedAt = r.s.now()
	r.s.db.appointments[id] = a
	return nil
}

func (r *appointmentRepository) UpdateDoctorNotes(ctx context.Context, id uuid.UUID, notes *string) error {
	defer r.s.lock()()
	a, ok := r.s.db.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.DoctorNotes = notes
	a.UpdatedAt = r.s.now()
	r.s.db.appointments[id] = a
	return nil
}

func (r *appointmentRepository) listBySlot(match func(a model.Appointment, sl model.Slot) bool) []*model.Appointment {
	type row struct {
		a     model.Appointment
		start time.Time
	}
	var rows []row
	for _, a := range r.s.db.appointments {
		sl := r.s.db.slots[a.SlotID]
		if match(a, sl) {
			rows = append(rows, row{a, sl.StartTime})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].start.After(rows[j].start) })

	out := make([]*model.Appointment, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i].a)
	}
	return out
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	defer r.s.lock()()
	return r.listBySlot(func(a model.Appointment, _ model.Slot) bool { return a.PatientID == patientID }), nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	defer r.s.lock()()
	return r.listBySlot(func(_ model.Appointment, sl model.Slot) bool { return sl.DoctorID == doctorID }), nil
}

type outboxRepository struct{ s *Store }

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	defer r.s.lock()()
	now := r.s.now()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	r.s.db.outbox[event.ID] = *event
	return nil
}

func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.lock()()
	var out []*model.OutboxEvent
	for _, e := range r.s.db.outbox {
		if e.Status == model.OutboxStatusPending {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	e, ok := r.s.db.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.s.now()
	e.Status = model.OutboxStatusProcessed
	e.ProcessedAt = &now
	e.UpdatedAt = now
	r.s.db.outbox[id] = e
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, final bool) error {
	defer r.s.lock()()
	e, ok := r.s.db.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.RetryCount++
	e.ErrorMessage = &errMsg
	if final {
		e.Status = model.OutboxStatusFailed
	}
	e.UpdatedAt = r.s.now()
	r.s.db.outbox[id] = e
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, e := range r.s.db.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.db.outbox, id)
			n++
		}
	}
	return n, nil
}
