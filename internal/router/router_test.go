package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/internal/handler"
	appointmenthandler "github.com/jwalitptl/ehr-booking/internal/handler/appointment"
	authhandler "github.com/jwalitptl/ehr-booking/internal/handler/auth"
	patienthandler "github.com/jwalitptl/ehr-booking/internal/handler/patient"
	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository/memory"
	"github.com/jwalitptl/ehr-booking/internal/service/appointment"
	"github.com/jwalitptl/ehr-booking/internal/service/auth"
	"github.com/jwalitptl/ehr-booking/internal/service/identity"
	"github.com/jwalitptl/ehr-booking/internal/service/patient"
	jwtauth "github.com/jwalitptl/ehr-booking/pkg/auth"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
	"github.com/jwalitptl/ehr-booking/pkg/security"
	"github.com/jwalitptl/ehr-booking/pkg/validator"
)

const cookieName = "jwtToken"

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine *gin.Engine
	auth   *auth.Service
}

func init() {
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterWithGin(); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, "ehr")
	hasher := security.NewBcryptHasher(4)

	tokens := jwtauth.NewJWTService(jwtauth.Config{Secret: "test-secret", Issuer: "ehr-test", Expiry: time.Hour})
	directory := identity.NewDirectory(store, time.Minute, time.Minute)
	authSvc := auth.NewService(store, hasher, tokens, directory, zerolog.Nop())
	bookingSvc := appointment.NewService(store, hasher, nil, m, zerolog.Nop(), appointment.Config{
		WalkInPlaceholderPassword: "defaultPassword123!",
	})

	r := NewRouter(
		middleware.NewAuthMiddleware(authSvc, cookieName),
		handler.NewHandler(store, reg),
		RouterConfig{CORSConfig: middleware.DefaultCORSConfig(), Metrics: m},
		authhandler.NewHandler(authSvc, authhandler.CookieConfig{Name: cookieName}),
		appointmenthandler.NewHandler(bookingSvc),
		patienthandler.NewHandler(patient.NewService(store)),
	)
	r.Setup()
	return &testServer{engine: r.Engine(), auth: authSvc}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *testServer) staff(t *testing.T, workID string, role model.StaffRole) string {
	t.Helper()
	_, err := s.auth.ProvisionStaff(context.Background(), model.AnonymousCaller(), model.CreateStaffRequest{
		WorkID:    workID,
		FirstName: "Test",
		LastName:  workID,
		Password:  "staff-password",
		Role:      role,
	})
	require.NoError(t, err)
	return s.login(t, "/api/v1/auth/staff/login", model.StaffLoginRequest{WorkID: workID, Password: "staff-password"})
}

func (s *testServer) patient(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/auth/register", model.RegisterRequest{
		FirstName: "Pat",
		LastName:  "Ient",
		Email:     email,
		Password:  "patient-password",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &view))

	token := s.login(t, "/api/v1/auth/login", model.LoginRequest{Identifier: email, Password: "patient-password"})
	return token, view.ID
}

func (s *testServer) login(t *testing.T, path string, body interface{}) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, path, body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok model.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	doctorToken := s.staff(t, "DOC-1", model.StaffRoleDoctor)
	patientToken, patientID := s.patient(t, "pat@example.com")
	otherToken, _ := s.patient(t, "other@example.com")

	w, _ := s.do(t, http.MethodGet, "/api/v1/patients/me", nil, doctorToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/v1/patients/me", nil, patientToken)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.PatientView
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, patientID, me.ID)

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute).UTC()
	doctorID := s.doctorID(t, doctorToken)
	w, env = s.do(t, http.MethodPost, "/api/v1/slots", model.CreateSlotRequest{
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}, doctorToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slot model.SlotView
	require.NoError(t, json.Unmarshal(env.Data, &slot))
	assert.Equal(t, model.SlotStatusAvailable, slot.Status)

	w, env = s.do(t, http.MethodGet, "/api/v1/slots/available", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var available []model.SlotView
	require.NoError(t, json.Unmarshal(env.Data, &available))
	require.Len(t, available, 1)
	assert.Equal(t, slot.ID, available[0].ID)

	w, env = s.do(t, http.MethodPost, "/api/v1/appointments", model.BookAppointmentRequest{SlotID: slot.ID, Notes: "cough"}, patientToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var appt model.AppointmentView
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	assert.Equal(t, patientID, appt.PatientID)
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)

	w, env = s.do(t, http.MethodPost, "/api/v1/appointments", model.BookAppointmentRequest{SlotID: slot.ID}, otherToken)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Appointment slot is not available.", env.Message)

	w, _ = s.do(t, http.MethodGet, "/api/v1/appointments/"+appt.ID.String(), nil, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPatch, "/api/v1/appointments/"+appt.ID.String()+"/status",
		model.UpdateAppointmentStatusRequest{Status: model.AppointmentStatusCancelled}, doctorToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodGet, "/api/v1/slots/available", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &available))
	assert.Len(t, available, 1)

	w, env = s.do(t, http.MethodGet, "/api/v1/patients/"+patientID.String()+"/appointments", nil, patientToken)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []model.AppointmentView
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, model.AppointmentStatusCancelled, mine[0].Status)
}

// doctorID resolves the staff id behind a token. Login responses only carry
// the token itself.
func (s *testServer) doctorID(t *testing.T, token string) uuid.UUID {
	t.Helper()
	caller, err := s.auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.True(t, caller.IsStaff())
	return caller.StaffID
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/patients/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", env.Status)

	w, _ = s.do(t, http.MethodGet, "/api/v1/patients/me", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a broken token on a public route is ignored
	w, _ = s.do(t, http.MethodGet, "/api/v1/slots/available", nil, "not-a-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/auth/login", model.LoginRequest{Identifier: "nobody@example.com", Password: "whatever1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", env.Message)
}

func TestSessionCookie(t *testing.T) {
	s := newTestServer(t)
	s.staff(t, "REC-1", model.StaffRoleReceptionist)

	body, _ := json.Marshal(model.StaffLoginRequest{WorkID: "REC-1", Password: "staff-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/staff/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/doctors/"+uuid.NewString()+"/appointments", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, cookieName, cleared[0].Name)
	assert.Empty(t, cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestStaffOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.staff(t, "ADM-1", model.StaffRoleAdmin)
	receptionistToken := s.staff(t, "REC-1", model.StaffRoleReceptionist)
	patientToken, _ := s.patient(t, "pat@example.com")

	req := model.CreateStaffRequest{WorkID: "DOC-9", FirstName: "New", LastName: "Doctor", Password: "doctor-password", Role: model.StaffRoleDoctor}

	w, env := s.do(t, http.MethodPost, "/api/v1/staff", req, receptionistToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access denied", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/staff", req, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.StaffSummary
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, model.StaffRoleDoctor, created.Role)
	assert.Equal(t, "New Doctor", created.FullName)

	walkIn := map[string]interface{}{
		"first_name": "Walk",
		"last_name":  "In",
		"phone":      "+2348000000000",
		"gender":     "FEMALE",
		"address":    "1 Front Desk Road",
		"slot_id":    uuid.NewString(),
	}
	w, env = s.do(t, http.MethodPost, "/api/v1/appointments/walk-in", walkIn, patientToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access denied", env.Message)

	w, _ = s.do(t, http.MethodPost, "/api/v1/appointments/walk-in", walkIn, receptionistToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.staff(t, "DOC-1", model.StaffRoleDoctor)

	w, _ := s.do(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/slots/available?from=yesterday", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/status", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(t, http.MethodPatch, "/api/v1/appointments/"+uuid.NewString()+"/status", map[string]string{"status": "LOST"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "status")
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ehr_http_requests_total")
}
