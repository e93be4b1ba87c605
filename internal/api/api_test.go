package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/athletearena/internal/api/apierr"
	"github.com/mcoot/athletearena/internal/api/handler"
	"github.com/mcoot/athletearena/internal/api/response"
	"github.com/mcoot/athletearena/internal/factory"
	"github.com/mcoot/athletearena/internal/model"
)

// testServer wraps the router built from a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{
		handler: app.Router([]string{"*"}),
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, email, role string) response.AuthResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/auth/register", map[string]any{
		"email":    email,
		"name":     strings.Split(email, "@")[0],
		"password": "password123",
		"role":     role,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func (ts *testServer) createTournament(t *testing.T, token string, capacity int) response.Tournament {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/tournaments", tournamentBody(capacity), token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp response.Tournament
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func tournamentBody(capacity int) map[string]any {
	return map[string]any{
		"name":             "Summer Slam",
		"sport":            "badminton",
		"description":      "Singles knockout",
		"start_date":       "2024-07-01T09:00:00Z",
		"end_date":         "2024-07-02T18:00:00Z",
		"location":         "Sports Centre",
		"max_participants": capacity,
	}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodGet, "/api/health", nil, "")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `athletearena_api_requests_total{method="GET",path="/api/health"} 1`)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decodeError(t, rr).Code)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tournaments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

// Auth

func TestRegisterReturnsUserAndToken(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockIDs.Queue("user-1")

	rr := ts.request(http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
		"role":     "participant",
		"phone":    "555-0100",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.Bytes()

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "participant", resp.User.Role)
	assert.Equal(t, "555-0100", *resp.User.Phone)
	assert.NotContains(t, string(body), "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice Again",
		"password": "password123",
		"role":     "organizer",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeEmailTaken, decodeError(t, rr).Code)
}

func TestRegisterInvalidInput(t *testing.T) {
	ts := newTestServer(t)

	cases := map[string]map[string]any{
		"bad role":  {"email": "a@example.com", "name": "A", "password": "pw", "role": "admin"},
		"bad email": {"email": "nope", "name": "A", "password": "pw", "role": "participant"},
		"no name":   {"email": "a@example.com", "password": "pw", "role": "participant"},
		"named":     {"email": "A <a@example.com>", "name": "A", "password": "pw", "role": "participant"},
		"bracketed": {"email": "<a@example.com>", "name": "A", "password": "pw", "role": "participant"},
		"no role":   {"email": "a@example.com", "name": "A", "password": "pw"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
		})
	}
}

func TestRegisterDisplayNameFormRejectedForTakenEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "X <alice@example.com>",
		"name":     "X",
		"password": "password123",
		"role":     "participant",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)

	_, err := ts.app.Storage.GetUserByEmail(context.Background(), "X <alice@example.com>")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestLoginRequiresFields(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
}

func TestRegisterMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	registered := ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decodeError(t, rr).Code)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	registered := ts.register(t, "alice@example.com", "organizer")

	rr := ts.request(http.MethodGet, "/api/auth/me", nil, registered.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var user response.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
	assert.Equal(t, registered.User.ID, user.ID)
	assert.Equal(t, "organizer", user.Role)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/tournaments"},
		{http.MethodPost, "/api/tournaments"},
		{http.MethodGet, "/api/tournaments/abc"},
		{http.MethodPost, "/api/tournaments/abc/register"},
		{http.MethodGet, "/api/my-tournaments"},
	}
	for _, route := range routes {
		rr := ts.request(route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, route.path)

		rr = ts.request(route.method, route.path, nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, route.path)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := newTestServer(t)
	registered := ts.register(t, "alice@example.com", "participant")

	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.request(http.MethodGet, "/api/auth/me", nil, registered.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decodeError(t, rr).Code)
}

// Tournaments

func TestCreateTournament(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")

	created := ts.createTournament(t, org.Token, 8)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Summer Slam", created.Name)
	assert.Equal(t, "upcoming", created.Status)
	assert.Equal(t, org.User.ID, created.OrganizerID)
	assert.Empty(t, created.Participants)
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), created.StartDate)
}

func TestCreateTournamentForbiddenForParticipant(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodPost, "/api/tournaments", tournamentBody(4), alice.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeForbidden, decodeError(t, rr).Code)
}

func TestCreateTournamentInvalidDates(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")

	body := tournamentBody(4)
	body["start_date"] = "next tuesday"
	rr := ts.request(http.MethodPost, "/api/tournaments", body, org.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body = tournamentBody(4)
	body["end_date"] = "2024-06-30T09:00:00Z"
	rr = ts.request(http.MethodPost, "/api/tournaments", body, org.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/tournaments", tournamentBody(0), org.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "max_participants must be at least 1", decodeError(t, rr).Message)

	body = tournamentBody(4)
	delete(body, "sport")
	rr = ts.request(http.MethodPost, "/api/tournaments", body, org.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "sport is required", decodeError(t, rr).Message)
}

func TestCreateTournamentAcceptsDatesWithoutOffset(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")

	body := tournamentBody(4)
	body["start_date"] = "2024-07-01T09:00:00"
	body["end_date"] = "2024-07-02 18:30:00"
	rr := ts.request(http.MethodPost, "/api/tournaments", body, org.Token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var created response.Tournament
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), created.StartDate)
	assert.Equal(t, time.Date(2024, 7, 2, 18, 30, 0, 0, time.UTC), created.EndDate)
}

func TestListAndGetTournaments(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")
	alice := ts.register(t, "alice@example.com", "participant")
	created := ts.createTournament(t, org.Token, 4)

	rr := ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/tournaments", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []response.TournamentDetails
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "org", list[0].OrganizerName)
	assert.Equal(t, 1, list[0].ParticipantsCount)
	assert.True(t, list[0].IsRegistered)

	rr = ts.request(http.MethodGet, "/api/tournaments/"+created.ID, nil, org.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var details response.TournamentDetails
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&details))
	assert.Equal(t, created.ID, details.ID)
	assert.False(t, details.IsRegistered)
}

func TestListTournamentsEmptyIsArray(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodGet, "/api/tournaments", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetUnknownTournament(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice@example.com", "participant")

	rr := ts.request(http.MethodGet, "/api/tournaments/missing", nil, alice.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeTournamentNotFound, decodeError(t, rr).Code)
}

// Registration

func TestRegisterForTournament(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")
	alice := ts.register(t, "alice@example.com", "participant")
	created := ts.createTournament(t, org.Token, 4)

	rr := ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var msg response.Message
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&msg))
	assert.Equal(t, handler.RegisteredMessage, msg.Message)

	rr = ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeAlreadyRegistered, decodeError(t, rr).Code)
}

func TestRegisterForTournamentErrors(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")
	alice := ts.register(t, "alice@example.com", "participant")
	bob := ts.register(t, "bob@example.com", "participant")
	created := ts.createTournament(t, org.Token, 1)

	// Organizers cannot register
	rr := ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, org.Token)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Unknown tournament
	rr = ts.request(http.MethodPost, "/api/tournaments/missing/register", nil, alice.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Capacity
	rr = ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, bob.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeTournamentFull, decodeError(t, rr).Code)
}

func TestConcurrentRegistrationSingleSeat(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")
	created := ts.createTournament(t, org.Token, 1)

	tokens := make([]string, 6)
	for i := range tokens {
		tokens[i] = ts.register(t, fmt.Sprintf("p%d@example.com", i), "participant").Token
	}

	codes := make([]int, len(tokens))
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			rr := ts.request(http.MethodPost, "/api/tournaments/"+created.ID+"/register", nil, token)
			codes[i] = rr.Code
		}(i, token)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 1, ok)

	rr := ts.request(http.MethodGet, "/api/tournaments/"+created.ID, nil, org.Token)
	var details response.TournamentDetails
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&details))
	assert.Equal(t, 1, details.ParticipantsCount)
}

func TestMyTournaments(t *testing.T) {
	ts := newTestServer(t)
	org := ts.register(t, "org@example.com", "organizer")
	alice := ts.register(t, "alice@example.com", "participant")
	first := ts.createTournament(t, org.Token, 4)
	ts.createTournament(t, org.Token, 4)

	rr := ts.request(http.MethodPost, "/api/tournaments/"+first.ID+"/register", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/my-tournaments", nil, alice.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []response.TournamentDetails
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&mine))
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.True(t, mine[0].IsRegistered)

	rr = ts.request(http.MethodGet, "/api/my-tournaments", nil, org.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&mine))
	assert.Len(t, mine, 2)
	for _, v := range mine {
		assert.True(t, v.IsRegistered)
	}
}
