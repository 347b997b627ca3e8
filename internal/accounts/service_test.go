package accounts

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
	"healthcare-booking-server/internal/store/memstore"
)

type recorder struct {
	mu      sync.Mutex
	intents []dispatch.Intent
}

func (r *recorder) Dispatch(in dispatch.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, in)
}

type fakeFiles struct {
	uploaded []string
	deleted  []string
	failDel  bool
}

func (f *fakeFiles) Upload(_ context.Context, file io.Reader, filename string) (string, error) {
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := "https://res.cloudinary.com/demo/image/upload/profile_pictures/" + filename
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeFiles) Delete(_ context.Context, url string) error {
	if f.failDel {
		return errors.New("storage unavailable")
	}
	f.deleted = append(f.deleted, url)
	return nil
}

type env struct {
	store *store.Store
	svc   *Service
	rec   *recorder
	files *fakeFiles
	admin access.Actor
	now   time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s := memstore.New()
	e := &env{store: s, rec: &recorder{}, files: &fakeFiles{}, now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	e.svc = NewService(s, access.NewPolicy(s.Doctors), e.rec, e.files, TokenConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, zerolog.Nop())
	e.svc.now = func() time.Time { return e.now }

	admin, err := e.svc.SeedAdmin(context.Background(), "Ada Admin", "ada@example.com", "secret123")
	require.NoError(t, err)
	e.admin = access.ActorFromUser(admin)
	return e
}

func (e *env) registerPatient(t *testing.T, email string) access.Actor {
	t.Helper()
	u, err := e.svc.Register(context.Background(), RegisterInput{Name: "Pat " + email, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return access.ActorFromUser(u)
}

// registerDoctor registers and approves a doctor, returning the account and profile.
func (e *env) registerDoctor(t *testing.T, name, email, specialization string) (access.Actor, *models.DoctorProfile) {
	t.Helper()
	ctx := context.Background()
	u, err := e.svc.Register(ctx, RegisterInput{
		Name: name, Email: email, Password: "secret123", Role: models.RoleDoctor,
		Specialization: specialization, Qualification: "MD",
	})
	require.NoError(t, err)
	reqs, err := e.svc.PendingDoctors(ctx, e.admin)
	require.NoError(t, err)
	for _, r := range reqs {
		if r.UserID == u.ID {
			profile, err := e.svc.ApproveDoctor(ctx, e.admin, r.ID, "127.0.0.1")
			require.NoError(t, err)
			u.Status = models.AccountApproved
			return access.ActorFromUser(u), profile
		}
	}
	t.Fatalf("no pending request for %s", email)
	return access.Actor{}, nil
}

func requireKind(t *testing.T, err error, k apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, k), "want %s, got %v", k, err)
}
