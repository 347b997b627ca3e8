// Package memstore is an in-process implementation of the store ports,
// used for local development (STORE_DRIVER=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

type db struct {
	mu             sync.RWMutex
	users          map[string]models.User
	doctors        map[string]models.DoctorProfile
	doctorRequests map[string]models.DoctorRequest
	appointments   map[string]models.Appointment
	reviews        map[string]models.Review
	prescriptions  map[string]models.Prescription
	notifications  map[string]models.Notification
	favorites      map[string]models.Favorite
	activityLogs   map[string]models.ActivityLog
	now            func() time.Time
}

// New returns a Store backed by process memory.
func New() *store.Store {
	d := &db{
		users:          map[string]models.User{},
		doctors:        map[string]models.DoctorProfile{},
		doctorRequests: map[string]models.DoctorRequest{},
		appointments:   map[string]models.Appointment{},
		reviews:        map[string]models.Review{},
		prescriptions:  map[string]models.Prescription{},
		notifications:  map[string]models.Notification{},
		favorites:      map[string]models.Favorite{},
		activityLogs:   map[string]models.ActivityLog{},
		now:            time.Now,
	}
	return &store.Store{
		Users:          &users{d},
		Doctors:        &doctors{d},
		DoctorRequests: &doctorRequests{d},
		Appointments:   &appointments{d},
		Reviews:        &reviews{d},
		Prescriptions:  &prescriptions{d},
		Notifications:  &notifications{d},
		Favorites:      &favorites{d},
		ActivityLogs:   &activityLogs{d},
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Users

type users struct{ *db }

func (r *users) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	u.Stamp(r.now())
	r.users[u.ID] = *u
	return nil
}

func (r *users) Get(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *users) GetByRefreshToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.RefreshToken.Token == token {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *users) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range r.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	u.UpdatedAt = r.now()
	r.users[u.ID] = *u
	return nil
}

func (r *users) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *users) List(_ context.Context, f store.UserFilter) ([]models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		if f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(u.Email, f.Search) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

// Doctors

type doctors struct{ *db }

func (r *doctors) Create(_ context.Context, d *models.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.doctors {
		if existing.UserID == d.UserID {
			return store.ErrDuplicate
		}
	}
	d.Stamp(r.now())
	r.doctors[d.ID] = *d
	return nil
}

func (r *doctors) Get(_ context.Context, id string) (*models.DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (r *doctors) GetByUserID(_ context.Context, userID string) (*models.DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.doctors {
		if d.UserID == userID {
			return &d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *doctors) Update(_ context.Context, d *models.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.doctors[d.ID]
	if !ok {
		return store.ErrNotFound
	}
	d.Rating = existing.Rating
	d.TotalReviews = existing.TotalReviews
	d.UpdatedAt = r.now()
	r.doctors[d.ID] = *d
	return nil
}

func (r *doctors) UpdateRating(_ context.Context, id string, rating float64, totalReviews int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return store.ErrNotFound
	}
	d.Rating = rating
	d.TotalReviews = totalReviews
	d.UpdatedAt = r.now()
	r.doctors[id] = d
	return nil
}

func (r *doctors) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.doctors, id)
	return nil
}

func (r *doctors) List(_ context.Context, f store.DoctorFilter) ([]models.DoctorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.DoctorProfile{}
	for _, d := range r.doctors {
		if f.Specialization != "" && !containsFold(d.Specialization, f.Specialization) {
			continue
		}
		if f.MinRating != nil && d.Rating < *f.MinRating {
			continue
		}
		if f.MinFee != nil && d.ConsultationFee < *f.MinFee {
			continue
		}
		if f.MaxFee != nil && d.ConsultationFee > *f.MaxFee {
			continue
		}
		if f.IsActive != nil && d.IsActive != *f.IsActive {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].TotalReviews > out[j].TotalReviews
	})
	return out, nil
}

// Doctor requests

type doctorRequests struct{ *db }

func (r *doctorRequests) Create(_ context.Context, req *models.DoctorRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.Stamp(r.now())
	r.doctorRequests[req.ID] = *req
	return nil
}

func (r *doctorRequests) Get(_ context.Context, id string) (*models.DoctorRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.doctorRequests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &req, nil
}

func (r *doctorRequests) Update(_ context.Context, req *models.DoctorRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctorRequests[req.ID]; !ok {
		return store.ErrNotFound
	}
	req.UpdatedAt = r.now()
	r.doctorRequests[req.ID] = *req
	return nil
}

func (r *doctorRequests) ListByStatus(_ context.Context, status models.AccountStatus) ([]models.DoctorRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.DoctorRequest{}
	for _, req := range r.doctorRequests {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Appointments

type appointments struct{ *db }

func (r *appointments) Create(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.Stamp(r.now())
	a.Version = 0
	r.appointments[a.ID] = *a
	return nil
}

func (r *appointments) Get(_ context.Context, id string) (*models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (r *appointments) Update(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.appointments[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.Version != a.Version {
		return store.ErrStaleWrite
	}
	a.Version++
	a.UpdatedAt = r.now()
	a.GoogleEventID = existing.GoogleEventID
	a.AppleEventID = existing.AppleEventID
	r.appointments[a.ID] = *a
	return nil
}

func (r *appointments) SetCalendarEvents(_ context.Context, id, googleEventID, appleEventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	if googleEventID != "" {
		a.GoogleEventID = googleEventID
	}
	if appleEventID != "" {
		a.AppleEventID = appleEventID
	}
	r.appointments[id] = a
	return nil
}

func matchAppointment(a models.Appointment, f store.AppointmentFilter) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && a.AppointmentDate.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.AppointmentDate.Before(*f.To) {
		return false
	}
	return true
}

func (r *appointments) List(_ context.Context, f store.AppointmentFilter) ([]models.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Appointment{}
	for _, a := range r.appointments {
		if matchAppointment(a, f) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentDate.After(out[j].AppointmentDate) })
	return out, nil
}

func (r *appointments) Count(_ context.Context, f store.AppointmentFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, a := range r.appointments {
		if matchAppointment(a, f) {
			n++
		}
	}
	return n, nil
}

// Reviews

type reviews struct{ *db }

func (r *reviews) Create(_ context.Context, rev *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.AppointmentID == rev.AppointmentID {
			return store.ErrDuplicate
		}
	}
	rev.Stamp(r.now())
	r.reviews[rev.ID] = *rev
	return nil
}

func (r *reviews) Get(_ context.Context, id string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rev, ok := r.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rev, nil
}

func (r *reviews) GetByAppointment(_ context.Context, appointmentID string) (*models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rev := range r.reviews {
		if rev.AppointmentID == appointmentID {
			return &rev, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *reviews) Update(_ context.Context, rev *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rev.ID]; !ok {
		return store.ErrNotFound
	}
	rev.UpdatedAt = r.now()
	r.reviews[rev.ID] = *rev
	return nil
}

func (r *reviews) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *reviews) ListByDoctor(_ context.Context, doctorID string, status models.ReviewStatus) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Review{}
	for _, rev := range r.reviews {
		if rev.DoctorID != doctorID {
			continue
		}
		if status != "" && rev.Status != status {
			continue
		}
		out = append(out, rev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Prescriptions

type prescriptions struct{ *db }

func clonePrescription(p models.Prescription) models.Prescription {
	p.Medications = append(p.Medications[:0:0], p.Medications...)
	return p
}

func (r *prescriptions) Create(_ context.Context, p *models.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Stamp(r.now())
	r.prescriptions[p.ID] = clonePrescription(*p)
	return nil
}

func (r *prescriptions) Get(_ context.Context, id string) (*models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = clonePrescription(p)
	return &p, nil
}

func (r *prescriptions) Update(_ context.Context, p *models.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[p.ID]; !ok {
		return store.ErrNotFound
	}
	p.UpdatedAt = r.now()
	r.prescriptions[p.ID] = clonePrescription(*p)
	return nil
}

func (r *prescriptions) List(_ context.Context, f store.PrescriptionFilter) ([]models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Prescription{}
	for _, p := range r.prescriptions {
		if f.PatientID != "" && p.PatientID != f.PatientID {
			continue
		}
		if f.DoctorID != "" && p.DoctorID != f.DoctorID {
			continue
		}
		out = append(out, clonePrescription(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Notifications

type notifications struct{ *db }

func (r *notifications) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.Stamp(r.now())
	r.notifications[n.ID] = *n
	return nil
}

func (r *notifications) Get(_ context.Context, id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (r *notifications) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *notifications) CountUnread(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, row := range r.notifications {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *notifications) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = r.now()
	r.notifications[id] = n
	return nil
}

func (r *notifications) MarkAllRead(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.UpdatedAt = now
			r.notifications[id] = n
		}
	}
	return nil
}

func (r *notifications) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.notifications, id)
	return nil
}

// Favorites

type favorites struct{ *db }

func (r *favorites) Create(_ context.Context, f *models.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.favorites {
		if existing.UserID == f.UserID && existing.DoctorID == f.DoctorID {
			return store.ErrDuplicate
		}
	}
	f.Stamp(r.now())
	stored := *f
	stored.Doctor = nil
	r.favorites[f.ID] = stored
	return nil
}

func (r *favorites) Delete(_ context.Context, userID, doctorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.favorites {
		if f.UserID == userID && f.DoctorID == doctorID {
			delete(r.favorites, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *favorites) ListByUser(_ context.Context, userID string) ([]models.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Favorite{}
	for _, f := range r.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *favorites) Exists(_ context.Context, userID, doctorID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.favorites {
		if f.UserID == userID && f.DoctorID == doctorID {
			return true, nil
		}
	}
	return false, nil
}

// Activity logs

type activityLogs struct{ *db }

func (r *activityLogs) Create(_ context.Context, l *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Stamp(r.now())
	r.activityLogs[l.ID] = *l
	return nil
}

func (r *activityLogs) List(_ context.Context, limit, offset int) ([]models.ActivityLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.ActivityLog{}
	for _, l := range r.activityLogs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), int64(len(out)), nil
}
