package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slotsdk "slotconsole/sdk/go"
)

type fakeSource struct {
	items   []string
	pages   int
	fail    error
	queries []slotsdk.PageQuery
}

func (f *fakeSource) fetch(_ context.Context, q slotsdk.PageQuery) (slotsdk.Page[string], error) {
	f.queries = append(f.queries, q)
	if f.fail != nil {
		return slotsdk.Page[string]{}, f.fail
	}
	return slotsdk.Page[string]{Items: append([]string(nil), f.items...), TotalPages: f.pages}, nil
}

func TestLoadPassesQueryAndStoresPage(t *testing.T) {
	src := &fakeSource{items: []string{"a", "b"}, pages: 4}
	l := New("konflikte", src.fetch, Options{Limit: 15, Status: "offen"})

	p := l.Load(context.Background(), 2)
	require.NoError(t, p.Err)
	assert.Equal(t, []string{"a", "b"}, p.Items)
	assert.Equal(t, 2, p.Current)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, slotsdk.PageQuery{Page: 2, Limit: 15, Status: "offen"}, src.queries[0])
}

func TestLoadFailureIsNonFatal(t *testing.T) {
	src := &fakeSource{fail: errors.New("backend down")}
	l := New("slots", src.fetch, Options{Limit: 12})

	p := l.Load(context.Background(), 1)
	assert.Error(t, p.Err)
	assert.Empty(t, p.Items)
	assert.Zero(t, p.TotalPages)
	assert.False(t, p.Empty())
}

func TestGoToIgnoresOutOfRangePages(t *testing.T) {
	src := &fakeSource{items: []string{"x"}, pages: 3}
	l := New("anfragen", src.fetch, Options{Limit: 15})
	l.Load(context.Background(), 1)

	_, ok := l.GoTo(context.Background(), 4)
	assert.False(t, ok)
	_, ok = l.GoTo(context.Background(), 0)
	assert.False(t, ok)
	p, ok := l.GoTo(context.Background(), 3)
	assert.True(t, ok)
	assert.Equal(t, 3, p.Current)
	assert.Len(t, src.queries, 2)
}

func TestActRefetchesOnlyOnSuccess(t *testing.T) {
	src := &fakeSource{items: []string{"t1", "t2"}, pages: 1}
	l := New("toepfe", src.fetch, Options{Limit: 12})
	l.Load(context.Background(), 1)

	src.items = []string{"t2"}
	fb := l.Act(context.Background(), "Löschen fehlgeschlagen.", func(context.Context) (slotsdk.ActionResult, error) {
		return slotsdk.ActionResult{Message: "Topf gelöscht."}, nil
	})
	assert.True(t, fb.OK())
	assert.Equal(t, "Topf gelöscht.", fb.Message)
	assert.Equal(t, []string{"t2"}, l.Current().Items)
	assert.Len(t, src.queries, 2)

	fb = l.Act(context.Background(), "Löschen fehlgeschlagen.", func(context.Context) (slotsdk.ActionResult, error) {
		return slotsdk.ActionResult{}, &slotsdk.APIError{StatusCode: 500}
	})
	assert.False(t, fb.OK())
	assert.Equal(t, "Löschen fehlgeschlagen.", fb.Message)
	assert.Len(t, src.queries, 2)

	fb = l.Act(context.Background(), "x", func(context.Context) (slotsdk.ActionResult, error) {
		return slotsdk.ActionResult{}, &slotsdk.APIError{StatusCode: 409, Message: "Topf hat Slots"}
	})
	assert.Equal(t, "Topf hat Slots", fb.Message)
}
