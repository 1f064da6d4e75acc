package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/catalog"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/database"
	"github.com/gdg-garage/event-registration-api/internal/ledger"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type sentNotification struct {
	kind    string
	student string
	event   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) NotifyRegistration(student models.User, event models.Event) error {
	n.record("registration", student, event)
	return nil
}

func (n *recordingNotifier) NotifyCancellation(student models.User, event models.Event) error {
	n.record("cancellation", student, event)
	return nil
}

func (n *recordingNotifier) record(kind string, student models.User, event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{kind: kind, student: student.Username, event: event.Name})
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type testServer struct {
	t        *testing.T
	router   http.Handler
	db       *gorm.DB
	auth     *auth.AuthHandler
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost}
	authHandler := auth.NewAuthHandler(cfg, db, session.NewMemoryStore())
	n := &recordingNotifier{}

	r := chi.NewRouter()
	RegisterRoutes(r, authHandler, NewEventHandler(catalog.New(db)), NewRegistrationHandler(ledger.New(db), n))

	return &testServer{t: t, router: r, db: db, auth: authHandler, notifier: n}
}

// user creates an account with the given role and returns its bearer token.
func (s *testServer) user(username, role string) (models.User, string) {
	s.t.Helper()
	u := models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(s.t, s.db.Create(&u).Error)
	token, err := s.auth.GenerateToken(auth.Identity{ID: u.ID, Username: u.Username, Role: u.Role})
	require.NoError(s.t, err)
	return u, token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorBody struct {
	Message string `json:"message"`
}

func requireError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	require.Equal(t, message, decode[errorBody](t, rr).Message)
}

func (s *testServer) createEvent(token string, body map[string]any) EventResponse {
	s.t.Helper()
	rr := s.do(http.MethodPost, "/events", token, body)
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[EventResponse](s.t, rr)
}

func newCookieRequest(method, path string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(cookie)
	return req
}

func httptestServe(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
