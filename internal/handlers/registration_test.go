package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRegister(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("root", models.RoleAdmin)
	alice, aliceToken := s.user("alice", models.RoleStudent)
	_, bobToken := s.user("bob", models.RoleStudent)

	event := s.createEvent(adminToken, map[string]any{"name": "Seminar", "maxCapacity": 1, "date": "2030-01-01T10:00:00Z"})

	t.Run("AdminCannotRegister", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/registrations", adminToken, map[string]any{"eventId": event.ID})
		requireError(t, rr, http.StatusForbidden, "Access denied")
	})

	t.Run("UnknownEvent", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/registrations", aliceToken, map[string]any{"eventId": 9999})
		requireError(t, rr, http.StatusNotFound, "Event not found")
	})

	t.Run("Success", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/registrations", aliceToken, map[string]any{"eventId": event.ID})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		reg := decode[RegistrationResponse](t, rr)
		assert.Equal(t, alice.ID, reg.StudentID)
		assert.Equal(t, event.ID, reg.EventID)
		require.NotNil(t, reg.Event)
		assert.Equal(t, "Seminar", reg.Event.Name)
		assert.WithinDuration(t, time.Now(), reg.RegistrationDate, time.Minute)
	})

	t.Run("Duplicate", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/registrations", aliceToken, map[string]any{"eventId": event.ID})
		requireError(t, rr, http.StatusBadRequest, "You have already registered for this event")
	})

	t.Run("Full", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/registrations", bobToken, map[string]any{"eventId": event.ID})
		requireError(t, rr, http.StatusBadRequest, "Event is full")
	})

	sent := s.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, sentNotification{kind: "registration", student: "alice", event: "Seminar"}, sent[0])
}

func TestHandleRegister_ConcurrentLastSeat(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("root", models.RoleAdmin)
	event := s.createEvent(adminToken, map[string]any{"name": "Last seat", "maxCapacity": 1, "date": "2030-01-01T10:00:00Z"})

	const students = 8
	tokens := make([]string, students)
	for i := range tokens {
		_, tokens[i] = s.user(fmt.Sprintf("student-%d", i), models.RoleStudent)
	}

	codes := make([]int, students)
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			rr := s.do(http.MethodPost, "/registrations", token, map[string]any{"eventId": event.ID})
			codes[i] = rr.Code
		}(i, token)
	}
	wg.Wait()

	var created, rejected int
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, students-1, rejected)

	summaries := decode[[]EventWithCountResponse](t, s.do(http.MethodGet, "/events/with-count", "", nil))
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 1, summaries[0].RegisteredCount)
	assert.True(t, summaries[0].IsFull)
}

func TestHandleCancel(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("root", models.RoleAdmin)
	_, aliceToken := s.user("alice", models.RoleStudent)
	_, bobToken := s.user("bob", models.RoleStudent)

	event := s.createEvent(adminToken, map[string]any{"name": "Bootcamp", "maxCapacity": 1, "date": "2030-01-01T10:00:00Z"})
	rr := s.do(http.MethodPost, "/registrations", aliceToken, map[string]any{"eventId": event.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reg := decode[RegistrationResponse](t, rr)
	path := fmt.Sprintf("/registrations/%d", reg.ID)

	t.Run("NotOwner", func(t *testing.T) {
		requireError(t, s.do(http.MethodDelete, path, bobToken, nil), http.StatusForbidden, "Not authorized to cancel this registration")
	})

	t.Run("Unknown", func(t *testing.T) {
		requireError(t, s.do(http.MethodDelete, "/registrations/9999", aliceToken, nil), http.StatusNotFound, "Registration not found")
	})

	t.Run("Owner", func(t *testing.T) {
		rr := s.do(http.MethodDelete, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "Registration cancelled successfully", decode[errorBody](t, rr).Message)

		requireError(t, s.do(http.MethodDelete, path, aliceToken, nil), http.StatusNotFound, "Registration not found")
	})

	t.Run("SeatFreed", func(t *testing.T) {
		rr := s.do(http.MethodPost, "/registrations", bobToken, map[string]any{"eventId": event.ID})
		assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	kinds := []string{}
	for _, n := range s.notifier.all() {
		kinds = append(kinds, n.kind)
	}
	assert.Equal(t, []string{"registration", "cancellation", "registration"}, kinds)
}

func TestHandleMyRegistrations(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("root", models.RoleAdmin)
	_, aliceToken := s.user("alice", models.RoleStudent)
	_, bobToken := s.user("bob", models.RoleStudent)

	rr := s.do(http.MethodGet, "/registrations/my-registrations", aliceToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	first := s.createEvent(adminToken, map[string]any{"name": "First", "maxCapacity": 5, "date": "2030-01-01T10:00:00Z"})
	second := s.createEvent(adminToken, map[string]any{"name": "Second", "maxCapacity": 5, "date": "2030-02-01T10:00:00Z"})

	for _, id := range []uint{first.ID, second.ID} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/registrations", aliceToken, map[string]any{"eventId": id}).Code)
	}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/registrations", bobToken, map[string]any{"eventId": first.ID}).Code)

	regs := decode[[]RegistrationResponse](t, s.do(http.MethodGet, "/registrations/my-registrations", aliceToken, nil))
	require.Len(t, regs, 2)
	for _, r := range regs {
		require.NotNil(t, r.Event)
	}
	assert.False(t, regs[1].RegistrationDate.After(regs[0].RegistrationDate), "expected newest first")

	requireError(t, s.do(http.MethodGet, "/registrations/my-registrations", adminToken, nil), http.StatusForbidden, "Access denied")
}

func TestAdminRegistrationRoutes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("root", models.RoleAdmin)
	_, aliceToken := s.user("alice", models.RoleStudent)
	_, bobToken := s.user("bob", models.RoleStudent)
	s.user("carol", models.RoleStudent)

	workshop := s.createEvent(adminToken, map[string]any{"name": "Workshop", "maxCapacity": 5, "date": "2030-01-01T10:00:00Z"})
	s.createEvent(adminToken, map[string]any{"name": "Seminar", "maxCapacity": 5, "date": "2030-02-01T10:00:00Z"})

	for _, token := range []string{aliceToken, bobToken} {
		require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/registrations", token, map[string]any{"eventId": workshop.ID}).Code)
	}

	t.Run("StudentDenied", func(t *testing.T) {
		for _, path := range []string{
			"/registrations/listRegistrations",
			"/registrations/stats",
			"/registrations/getRegistrationsByDate?start=2020-01-01&end=2100-01-01",
		} {
			requireError(t, s.do(http.MethodGet, path, aliceToken, nil), http.StatusForbidden, "Access denied")
		}
	})

	t.Run("ListAll", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/registrations/listRegistrations", adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		regs := decode[[]RegistrationResponse](t, rr)
		require.Len(t, regs, 2)
		usernames := []string{}
		for _, r := range regs {
			require.NotNil(t, r.Student)
			require.NotNil(t, r.Event)
			usernames = append(usernames, r.Student.Username)
		}
		assert.ElementsMatch(t, []string{"alice", "bob"}, usernames)
	})

	t.Run("Stats", func(t *testing.T) {
		rr := s.do(http.MethodGet, "/registrations/stats", adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.JSONEq(t, `{
			"totalRegistrations": 2,
			"totalEvents": 2,
			"totalStudents": 3,
			"averageRegistrationsPerEvent": 1
		}`, rr.Body.String())
	})

	t.Run("ByDate", func(t *testing.T) {
		today := time.Now().UTC()
		path := fmt.Sprintf("/registrations/getRegistrationsByDate?start=%s&end=%s",
			today.Add(-time.Hour).Format(time.RFC3339), today.Add(time.Hour).Format(time.RFC3339))
		rr := s.do(http.MethodGet, path, adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Len(t, decode[[]RegistrationResponse](t, rr), 2)

		rr = s.do(http.MethodGet, "/registrations/getRegistrationsByDate?start=2000-01-01&end=2000-01-02", adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("ByDateErrors", func(t *testing.T) {
		requireError(t, s.do(http.MethodGet, "/registrations/getRegistrationsByDate?end=2030-01-01", adminToken, nil),
			http.StatusBadRequest, "Start and end dates are required")
		requireError(t, s.do(http.MethodGet, "/registrations/getRegistrationsByDate?start=2030-02-01&end=2030-01-01", adminToken, nil),
			http.StatusBadRequest, "Invalid date range")
		requireError(t, s.do(http.MethodGet, "/registrations/getRegistrationsByDate?start=soon&end=2030-01-01", adminToken, nil),
			http.StatusBadRequest, "Invalid date")
	})
}

func TestDeleteEvent_RemovesRegistrations(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("root", models.RoleAdmin)
	_, aliceToken := s.user("alice", models.RoleStudent)

	event := s.createEvent(adminToken, map[string]any{"name": "Doomed", "maxCapacity": 5, "date": "2030-01-01T10:00:00Z"})
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/registrations", aliceToken, map[string]any{"eventId": event.ID}).Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/events/%d", event.ID), adminToken, nil).Code)

	rr := s.do(http.MethodGet, "/registrations/my-registrations", aliceToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/auth/register", "", map[string]any{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "User registered successfully", decode[errorBody](t, rr).Message)

	requireError(t, s.do(http.MethodPost, "/auth/register", "", map[string]any{"username": "alice", "password": "other"}),
		http.StatusBadRequest, "Username already exists")
	requireError(t, s.do(http.MethodPost, "/auth/register", "", map[string]any{"username": "bob", "password": strings.Repeat("a", 73)}),
		http.StatusBadRequest, "Password must be at most 72 bytes")

	requireError(t, s.do(http.MethodPost, "/auth/login", "", map[string]any{"username": "nobody", "password": "secret"}),
		http.StatusUnauthorized, "Username does not exist")
	requireError(t, s.do(http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "wrong"}),
		http.StatusUnauthorized, "Wrong password")

	rr = s.do(http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	login := decode[struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}](t, rr)
	assert.Equal(t, "alice", login.User.Username)
	assert.Equal(t, models.RoleStudent, login.User.Role)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)

	req := newCookieRequest(http.MethodGet, "/auth/me", cookies[0])
	me := httptestServe(s, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())

	// The login token is accepted by the role gates.
	rr = s.do(http.MethodGet, "/registrations/my-registrations", login.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	logout := httptestServe(s, newCookieRequest(http.MethodPost, "/auth/logout", cookies[0]))
	require.Equal(t, http.StatusOK, logout.Code, logout.Body.String())

	me = httptestServe(s, newCookieRequest(http.MethodGet, "/auth/me", cookies[0]))
	requireError(t, me, http.StatusUnauthorized, "Not authenticated")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
