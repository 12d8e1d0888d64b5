package coordination

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotconsole/internal/db"
	"slotconsole/internal/migrate"
	"slotconsole/internal/repo"
	slotsdk "slotconsole/sdk/go"
)

// fakeBackend serves one pot group and ranks fee comparisons in submitted
// order.
type fakeBackend struct {
	mu    sync.Mutex
	group slotsdk.KonfliktGruppe
	sent  []slotsdk.EntgeltvergleichPayload
}

func (b *fakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/konflikte/gruppen/{id}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if chi.URLParam(req, "id") != b.group.ID {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "Konfliktgruppe nicht gefunden"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": b.group})
	})
	r.Put("/api/konflikte/gruppen/{id}/entgeltvergleich", func(w http.ResponseWriter, req *http.Request) {
		var p slotsdk.EntgeltvergleichPayload
		if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.sent = append(b.sent, p)
		var ranking []slotsdk.Reihung
		for _, r := range p.EVUReihungen {
			for _, id := range r.AnfrageIDs {
				ranking = append(ranking, slotsdk.Reihung{Rang: len(ranking) + 1, Anfrage: slotsdk.Ref[slotsdk.Anfrage](id)})
			}
		}
		b.group.KonflikteInGruppe[0].ReihungEntgelt = ranking
		b.group.Status = StatusInBearbeitungHoechstpreis
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Entgeltvergleich durchgeführt."})
	})
	return r
}

func TestFeeComparisonEndToEnd(t *testing.T) {
	backend := &fakeBackend{group: potGroup(StatusInBearbeitungEntgelt, 2, anfrage("x1", "X"), anfrage("x2", "X"), anfrage("y1", "Y"))}
	srv := httptest.NewServer(backend.routes())
	defer srv.Close()

	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()
	require.NoError(t, migrate.Migrate(ctx, conn))
	store := repo.Repo{DB: conn}

	client := slotsdk.New(srv.URL + "/api")
	c := New(client, slotsdk.GroupKindTopf, "g1", Options{Drafts: store})
	require.NoError(t, c.Load(ctx))

	quotas := c.Quotas()
	require.Len(t, quotas, 2)
	assert.Equal(t, 1, quotas[0].Limit)
	assert.True(t, quotas[0].Flagged, "X holds 2 of 2 slots")
	assert.False(t, quotas[1].Flagged)

	require.NoError(t, c.MoveDown("X", 0))
	require.NoError(t, c.Persist(ctx))

	// a later invocation continues from the stored draft
	c = New(client, slotsdk.GroupKindTopf, "g1", Options{Drafts: store})
	require.NoError(t, c.Load(ctx))
	assert.Equal(t, []string{"x2", "x1"}, c.Orderings()["X"])

	fb := c.SubmitFeeComparison(ctx)
	require.True(t, fb.OK(), fb.Message)
	assert.Equal(t, "Entgeltvergleich durchgeführt.", fb.Message)

	require.Len(t, backend.sent, 1)
	assert.Equal(t, []slotsdk.EVUReihung{
		{EVU: "X", AnfrageIDs: []string{"x2", "x1"}},
		{EVU: "Y", AnfrageIDs: []string{"y1"}},
	}, backend.sent[0].EVUReihungen)

	ranking := c.Ranking()
	require.NotEmpty(t, ranking)
	assert.Equal(t, 1, ranking[0].Rang)
	assert.Equal(t, "x2", ranking[0].AnfrageID)

	_, err = store.GetDraft(ctx, "topf", "g1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestStaleDraftIsDiscarded(t *testing.T) {
	backend := &fakeBackend{group: potGroup(StatusOffen, 2, anfrage("a1", "X"), anfrage("a2", "X"))}
	srv := httptest.NewServer(backend.routes())
	defer srv.Close()

	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()
	require.NoError(t, migrate.Migrate(ctx, conn))
	store := repo.Repo{DB: conn}
	client := slotsdk.New(srv.URL + "/api")

	c := New(client, slotsdk.GroupKindTopf, "g1", Options{Drafts: store})
	require.NoError(t, c.Load(ctx))
	_, err = c.ToggleWaiver("a1")
	require.NoError(t, err)
	require.NoError(t, c.Persist(ctx))

	backend.mu.Lock()
	backend.group.Status = StatusInBearbeitungVerzicht
	backend.mu.Unlock()

	c = New(client, slotsdk.GroupKindTopf, "g1", Options{Drafts: store})
	require.NoError(t, c.Load(ctx))
	assert.Empty(t, c.Waivers())
	_, err = store.GetDraft(ctx, "topf", "g1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestLoadFailureIsReturned(t *testing.T) {
	backend := &fakeBackend{group: potGroup(StatusOffen, 2)}
	srv := httptest.NewServer(backend.routes())
	defer srv.Close()

	c := New(slotsdk.New(srv.URL+"/api"), slotsdk.GroupKindTopf, "missing", Options{})
	err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, slotsdk.IsNotFound(err))
	assert.Equal(t, "Konfliktgruppe nicht gefunden", slotsdk.MessageOr(err, LoadFailedMessage))
}
