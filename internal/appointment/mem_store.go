package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is a thread-safe in-process Store. Records are copied in and out
// so callers never share memory with the map.
type MemStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]Appointment
	now  func() time.Time
}

// NewMemStore creates an empty store. now defaults to time.Now.
func NewMemStore(now func() time.Time) *MemStore {
	if now == nil {
		now = time.Now
	}
	return &MemStore{
		data: make(map[uuid.UUID]Appointment),
		now:  now,
	}
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) Save(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	rec := *a

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
		rec.CreatedAt = now
		rec.UpdatedAt = now
	} else {
		existing, ok := m.data[rec.ID]
		if !ok {
			return nil, ErrAppointmentNotFound
		}
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = now
		if rec.UpdatedAt.Before(rec.CreatedAt) {
			rec.UpdatedAt = rec.CreatedAt
		}
	}

	m.data[rec.ID] = rec
	out := rec
	return &out, nil
}

func (m *MemStore) FindByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &rec, nil
}

func (m *MemStore) FindAll(_ context.Context) ([]Appointment, error) {
	out := m.filter(func(Appointment) bool { return true })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemStore) FindByPatient(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	out := m.filter(func(a Appointment) bool { return a.PatientID == patientID })
	sortByDate(out)
	return out, nil
}

func (m *MemStore) FindByDoctor(_ context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	out := m.filter(func(a Appointment) bool { return a.DoctorID == doctorID })
	sortByDate(out)
	return out, nil
}

func (m *MemStore) FindFutureByPatient(_ context.Context, patientID uuid.UUID, from time.Time) ([]Appointment, error) {
	out := m.filter(func(a Appointment) bool {
		return a.PatientID == patientID && !a.AppointmentDate.Before(from)
	})
	sortByDate(out)
	return out, nil
}

func (m *MemStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *MemStore) filter(keep func(Appointment) bool) []Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Appointment, 0, len(m.data))
	for _, rec := range m.data {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func sortByDate(list []Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].AppointmentDate.Equal(list[j].AppointmentDate) {
			return list[i].AppointmentDate.Before(list[j].AppointmentDate)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
