package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/calendar"
	"healthcare-booking-server/internal/dispatch"
	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/rating"
	"healthcare-booking-server/internal/reviews"
	"healthcare-booking-server/internal/store/memstore"
)

type testServer struct {
	router     *gin.Engine
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memstore.New()
	log := zerolog.Nop()
	policy := access.NewPolicy(s.Doctors)
	acc := accounts.NewService(s, policy, dispatch.Nop{}, nil, accounts.TokenConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, log)

	router := gin.New()
	SetupRoutes(router, Deps{
		Accounts:   acc,
		Bookings:   booking.NewService(s, policy, dispatch.Nop{}, nil, log),
		Reviews:    reviews.NewService(s, policy, rating.NewAggregator(s.Reviews, s.Doctors), dispatch.Nop{}, true, log),
		Policy:     policy,
		ICS:        calendar.NewAppleSyncer("example.com", time.UTC),
		Metrics:    metrics.New(),
		RefreshTTL: 24 * time.Hour,
	})

	_, err := acc.SeedAdmin(context.Background(), "Ada Admin", "ada@example.com", "secret123")
	require.NoError(t, err)

	ts := &testServer{router: router}
	ts.adminToken = ts.login(t, "ada@example.com", "secret123")
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	d, ok := decode(t, rec)["data"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return d
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return data(t, rec)["accessToken"].(string)
}

func (ts *testServer) registerPatient(t *testing.T, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Pat", "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return ts.login(t, email, "secret123")
}

// registerDoctor registers a doctor, approves it as admin and returns the
// doctor's token and profile id.
func (ts *testServer) registerDoctor(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Dr Dana", "email": email, "password": "secret123", "role": "doctor",
		"specialization": "Cardiology", "qualification": "MD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	userID := data(t, rec)["_id"].(string)

	rec = ts.do(t, http.MethodGet, "/api/auth/pending-doctors", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var requestID string
	for _, r := range decode(t, rec)["data"].([]any) {
		req := r.(map[string]any)
		if req["userId"] == userID {
			requestID = req["id"].(string)
		}
	}
	require.NotEmpty(t, requestID)

	rec = ts.do(t, http.MethodPost, "/api/auth/approve-doctor/"+requestID, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profileID := data(t, rec)["id"].(string)

	return ts.login(t, email, "secret123"), profileID
}

func (ts *testServer) book(t *testing.T, token, doctorID string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/bookings", token, gin.H{
		"doctorId":        doctorID,
		"appointmentDate": time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		"appointmentTime": "10:00",
		"symptoms":        "headache",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(t, rec)["id"].(string)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UP", decode(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Pat", "email": "pat@example.com", "password": "secret123"})

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "pat@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := data(t, rec)["accessToken"].(string)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, data(t, rec)["accessToken"])

	rec = ts.do(t, http.MethodPost, "/api/auth/logout", token, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshAcceptsBodyToken(t *testing.T) {
	ts := newTestServer(t)
	ts.registerPatient(t, "pat@example.com")

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "pat@example.com", "password": "secret123"})
	refresh := data(t, rec)["refreshToken"].(string)

	rec = ts.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Eve", "email": "eve@example.com", "password": "secret123", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["message"])
}

func TestRegisterValidatesBody(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["message"])
}

func TestAuthMiddlewareErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decode(t, rec)["code"])
}

func TestPendingDoctorIsRefused(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Dr New", "email": "new@example.com", "password": "secret123", "role": "doctor",
		"specialization": "Dermatology", "qualification": "MD",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := ts.login(t, "new@example.com", "secret123")

	rec = ts.do(t, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_NOT_APPROVED", decode(t, rec)["code"])
}

func TestRoleGate(t *testing.T) {
	ts := newTestServer(t)
	patient := ts.registerPatient(t, "pat@example.com")

	rec := ts.do(t, http.MethodGet, "/api/users", patient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/users", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, data(t, rec)["total"])
}

func TestBookingLifecycle(t *testing.T) {
	ts := newTestServer(t)
	doctor, doctorID := ts.registerDoctor(t, "dana@example.com")
	patient := ts.registerPatient(t, "pat@example.com")
	id := ts.book(t, patient, doctorID)

	rec := ts.do(t, http.MethodGet, "/api/bookings/my-appointments", patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = ts.do(t, http.MethodPut, "/api/bookings/"+id+"/confirm", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", data(t, rec)["status"])

	rec = ts.do(t, http.MethodPut, "/api/bookings/"+id+"/consultation-notes", doctor, gin.H{"consultationNotes": "rest"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rest", data(t, rec)["consultationNotes"])
	assert.Equal(t, "rest", data(t, rec)["notes"])

	rec = ts.do(t, http.MethodPut, "/api/bookings/"+id+"/cancel", patient, gin.H{"reason": "travel"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", data(t, rec)["status"])
	assert.Equal(t, "travel", data(t, rec)["cancellationReason"])

	rec = ts.do(t, http.MethodPut, "/api/bookings/"+id+"/cancel", patient, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, rec)["code"])
}

func TestBookingVisibility(t *testing.T) {
	ts := newTestServer(t)
	_, doctorID := ts.registerDoctor(t, "dana@example.com")
	patient := ts.registerPatient(t, "pat@example.com")
	other := ts.registerPatient(t, "olly@example.com")
	id := ts.book(t, patient, doctorID)

	rec := ts.do(t, http.MethodGet, "/api/bookings/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/bookings/"+id, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/bookings/doctor-appointments", patient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCalendarFile(t *testing.T) {
	ts := newTestServer(t)
	_, doctorID := ts.registerDoctor(t, "dana@example.com")
	patient := ts.registerPatient(t, "pat@example.com")
	id := ts.book(t, patient, doctorID)

	rec := ts.do(t, http.MethodGet, "/api/bookings/"+id+"/calendar.ics", patient, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), id+"@example.com")
}

func TestReviewFlowUpdatesRating(t *testing.T) {
	ts := newTestServer(t)
	doctor, doctorID := ts.registerDoctor(t, "dana@example.com")
	patient := ts.registerPatient(t, "pat@example.com")
	id := ts.book(t, patient, doctorID)

	rec := ts.do(t, http.MethodPost, "/api/reviews", patient, gin.H{"appointmentId": id, "rating": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "review before completion")

	rec = ts.do(t, http.MethodPut, "/api/bookings/"+id+"/complete", doctor, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/reviews", patient, gin.H{"appointmentId": id, "rating": 4, "comment": "good"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reviewID := data(t, rec)["id"].(string)

	rec = ts.do(t, http.MethodGet, "/api/reviews/doctor/"+doctorID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = ts.do(t, http.MethodGet, "/api/doctors/"+doctorID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, data(t, rec)["rating"])
	assert.EqualValues(t, 1, data(t, rec)["totalReviews"])

	rec = ts.do(t, http.MethodDelete, "/api/reviews/"+reviewID, doctor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/reviews/"+reviewID, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/doctors/"+doctorID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, data(t, rec)["rating"])
	assert.EqualValues(t, 0, data(t, rec)["totalReviews"])
}

func TestPrescriptionFlow(t *testing.T) {
	ts := newTestServer(t)
	doctor, doctorID := ts.registerDoctor(t, "dana@example.com")
	patient := ts.registerPatient(t, "pat@example.com")
	id := ts.book(t, patient, doctorID)

	rec := ts.do(t, http.MethodPost, "/api/prescriptions", doctor, gin.H{
		"appointmentId": id,
		"medications": []gin.H{{
			"name": "Ibuprofen", "dosage": "200mg", "frequency": "twice daily", "duration": "5 days",
		}},
		"followUpDate": time.Now().AddDate(0, 0, 14).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rxID := data(t, rec)["id"].(string)

	rec = ts.do(t, http.MethodGet, "/api/prescriptions/"+rxID, patient, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/prescriptions/"+rxID, ts.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := ts.registerPatient(t, "olly@example.com")
	rec = ts.do(t, http.MethodGet, "/api/prescriptions/"+rxID, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/bookings/"+id, patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rxID, data(t, rec)["prescriptionId"])

	rec = ts.do(t, http.MethodPost, "/api/prescriptions", doctor, gin.H{"appointmentId": id, "medications": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDoctorSearchIsPublic(t *testing.T) {
	ts := newTestServer(t)
	ts.registerDoctor(t, "dana@example.com")

	rec := ts.do(t, http.MethodGet, "/api/doctors?search=cardio", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = ts.do(t, http.MethodGet, "/api/doctors?minRating=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFavoritesAndNotifications(t *testing.T) {
	ts := newTestServer(t)
	_, doctorID := ts.registerDoctor(t, "dana@example.com")
	patient := ts.registerPatient(t, "pat@example.com")

	rec := ts.do(t, http.MethodPost, "/api/favorites", patient, gin.H{"doctorId": doctorID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/favorites", patient, gin.H{"doctorId": doctorID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/favorites/check/"+doctorID, patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, data(t, rec)["isFavorite"])

	rec = ts.do(t, http.MethodDelete, "/api/favorites/"+doctorID, patient, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/notifications", patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, data(t, rec)["unreadCount"])
}

func TestProfilePictureRequiresFile(t *testing.T) {
	ts := newTestServer(t)
	patient := ts.registerPatient(t, "pat@example.com")

	rec := ts.do(t, http.MethodPost, "/api/profile/picture", patient, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityLogRecordsAdminActions(t *testing.T) {
	ts := newTestServer(t)
	ts.registerDoctor(t, "dana@example.com")

	rec := ts.do(t, http.MethodGet, "/api/activity-logs", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, data(t, rec)["total"])
}
