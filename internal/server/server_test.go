package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotconsole/internal/repo"
	slotsdk "slotconsole/sdk/go"
)

type fakeBackend struct {
	group      slotsdk.KonfliktGruppe
	summaryErr error
}

func (f *fakeBackend) GetGruppe(_ context.Context, _ slotsdk.GroupKind, id string) (slotsdk.KonfliktGruppe, error) {
	if id != f.group.ID {
		return slotsdk.KonfliktGruppe{}, &slotsdk.APIError{StatusCode: http.StatusNotFound, Message: "Konfliktgruppe nicht gefunden"}
	}
	return f.group, nil
}

func (f *fakeBackend) VerschiebeAnalyse(context.Context, slotsdk.GroupKind, string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (f *fakeBackend) Alternativen(context.Context, slotsdk.GroupKind, string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func (f *fakeBackend) VerzichtVerschub(context.Context, slotsdk.GroupKind, string, slotsdk.VerzichtPayload) (slotsdk.ActionResult, error) {
	return slotsdk.ActionResult{}, errors.New("read-only")
}

func (f *fakeBackend) Entgeltvergleich(context.Context, slotsdk.GroupKind, string, slotsdk.EntgeltvergleichPayload) (slotsdk.ActionResult, error) {
	return slotsdk.ActionResult{}, errors.New("read-only")
}

func (f *fakeBackend) Hoechstpreis(context.Context, slotsdk.GroupKind, string, slotsdk.HoechstpreisPayload) (slotsdk.ActionResult, error) {
	return slotsdk.ActionResult{}, errors.New("read-only")
}

func (f *fakeBackend) AnfrageSummary(context.Context) ([]slotsdk.AnfrageSummaryRow, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return []slotsdk.AnfrageSummaryRow{{EVU: "X", TotalAnfragen: 3, StatusCounts: slotsdk.StatusCounts{"validiert": 2, "inKonflikt": 1}}}, nil
}

func (f *fakeBackend) ListGruppen(context.Context, slotsdk.GroupKind) ([]slotsdk.KonfliktGruppe, error) {
	return []slotsdk.KonfliktGruppe{f.group}, nil
}

func (f *fakeBackend) ZuordnenAlleValidierten(context.Context) (slotsdk.ZuordnungSummary, string, error) {
	return slotsdk.ZuordnungSummary{}, "", nil
}

func (f *fakeBackend) IdentifiziereTopfKonflikte(context.Context) (slotsdk.IdentifikationResult, error) {
	return slotsdk.IdentifikationResult{}, nil
}

type fakeJournal []repo.JournalEntry

func (j fakeJournal) TailJournal(_ context.Context, f repo.JournalFilter) ([]repo.JournalEntry, error) {
	var out []repo.JournalEntry
	for _, e := range j {
		if f.EntityID == "" || e.EntityID == f.EntityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func entgeltGroup() slotsdk.KonfliktGruppe {
	topf := slotsdk.Kapazitaetstopf{ID: "t1", TopfID: "TPF-1", MaxKapazitaet: 2, ListeDerSlots: []slotsdk.Populated[slotsdk.Slot]{
		slotsdk.Ref[slotsdk.Slot]("s1"), slotsdk.Ref[slotsdk.Slot]("s2"),
	}}
	return slotsdk.KonfliktGruppe{
		ID:     "g1",
		Status: "in_bearbeitung_entgelt",
		BeteiligteAnfragen: []slotsdk.Anfrage{
			{ID: "x1", EVU: "X"}, {ID: "x2", EVU: "X"}, {ID: "y1", EVU: "Y"},
		},
		KonflikteInGruppe: []slotsdk.Konflikt{{ID: "k1", KonfliktTyp: slotsdk.KonfliktTypTopf, AusloesenderKapazitaetstopf: slotsdk.Of("t1", topf)}},
	}
}

func newTestServer(t *testing.T, b *fakeBackend, auth AuthConfig) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	handler, err := New(Config{Backend: b, Journal: fakeJournal{{ID: 1, Type: "gruppe.verzicht", EntityKind: "konfliktgruppe", EntityID: "g1", Outcome: "ok"}}, Auth: auth, Logger: log})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

type envelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestHealthAndRequestID(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/health", map[string]string{RequestIDHeader: "req-1"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.Equal(t, "req-1", res.Header.Get(RequestIDHeader))

	res, body = get(t, srv.URL+"/v1/whoami", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"authenticated":false,"roles":[]}`, string(body))
	assert.NotContains(t, string(body), "$schema")
	assert.Empty(t, res.Header.Get("Link"))
}

func TestPaginationWindow(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/pagination?current=10&total=20", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var out PaginationResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{"1", "...", "8", "9", "10", "11", "12", "...", "20"}, out.Labels)

	res, body = get(t, srv.URL+"/v1/pagination?current=5&total=3", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "bad_request", env.Error.Code)
}

func TestKoordinationSnapshot(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/gruppen/topf/g1/koordination", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var snap struct {
		Phase       string `json:"phase"`
		ReorderOpen bool   `json:"entgeltvergleichOffen"`
		QuotaLimit  int    `json:"quotenLimit"`
		Known       bool   `json:"slotsImTopfBekannt"`
		Quoten      []struct {
			EVU     string `json:"evu"`
			Flagged bool   `json:"ueberQuote"`
		} `json:"quoten"`
	}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.True(t, snap.ReorderOpen)
	assert.Equal(t, 1, snap.QuotaLimit)
	assert.True(t, snap.Known)
	require.Len(t, snap.Quoten, 2)
	assert.Equal(t, "X", snap.Quoten[0].EVU)
	assert.True(t, snap.Quoten[0].Flagged)
	assert.False(t, snap.Quoten[1].Flagged)
}

func TestKoordinationNotFoundUsesBackendMessage(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/gruppen/topf/missing/koordination", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "not_found", env.Error.Code)
	assert.Equal(t, "Konfliktgruppe nicht gefunden", env.Error.Message)
}

func TestDashboardFailureIsOneError(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup(), summaryErr: errors.New("connection refused")}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/dashboard", nil)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "backend_unavailable", env.Error.Code)
	assert.Equal(t, "Daten konnten nicht geladen werden.", env.Error.Message)
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var o struct {
		Pipeline map[string]int `json:"pipeline"`
	}
	require.NoError(t, json.Unmarshal(body, &o))
	assert.Equal(t, 2, o.Pipeline["validiert"])
	assert.Equal(t, 1, o.Pipeline["inKonflikt"])
}

func TestJournal(t *testing.T) {
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{})
	res, body := get(t, srv.URL+"/v1/journal?entity_id=g1", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var items []repo.JournalEntry
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "gruppe.verzicht", items[0].Type)
}

func TestBearerAuth(t *testing.T) {
	secret := "test-secret"
	srv := newTestServer(t, &fakeBackend{group: entgeltGroup()}, AuthConfig{JWTSecret: secret})

	res, _ := get(t, srv.URL+"/v1/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body := get(t, srv.URL+"/v1/pagination?current=1&total=3", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "unauthorized", env.Error.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "disponent",
		"roles": []string{"koordination"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	authz := map[string]string{"Authorization": "Bearer " + signed}
	res, _ = get(t, srv.URL+"/v1/pagination?current=1&total=3", authz)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body = get(t, srv.URL+"/v1/whoami", authz)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var who WhoamiResponse
	require.NoError(t, json.Unmarshal(body, &who))
	assert.True(t, who.Authenticated)
	assert.Equal(t, "disponent", who.Subject)
	assert.Equal(t, []string{"koordination"}, who.Roles)

	res, _ = get(t, srv.URL+"/v1/pagination?current=1&total=3", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestMetricsCountRequestsAndUpstreamCalls(t *testing.T) {
	m := NewMetrics()
	log := logrus.New()
	log.SetOutput(io.Discard)
	handler, err := New(Config{Backend: &fakeBackend{group: entgeltGroup()}, Logger: log, Metrics: m})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	get(t, srv.URL+"/v1/health", nil)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()
	client := &http.Client{Transport: m.Transport(nil)}
	resp, err := client.Get(upstream.URL)
	require.NoError(t, err)
	resp.Body.Close()

	_, body := get(t, srv.URL+"/metrics", nil)
	assert.Contains(t, string(body), `slotconsole_api_requests_total{route="/v1/health",status="200"} 1`)
	assert.Contains(t, string(body), `slotconsole_backend_requests_total{class="4xx",method="GET"} 1`)
}
