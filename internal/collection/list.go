// Package collection drives the paginated list pages: fetch a page, keep the
// items and page count, run row actions and refetch.
package collection

import (
	"context"

	"github.com/sirupsen/logrus"

	"slotconsole/internal/pagination"
	slotsdk "slotconsole/sdk/go"
)

// Fetcher loads one page of items.
type Fetcher[T any] func(ctx context.Context, q slotsdk.PageQuery) (slotsdk.Page[T], error)

// Page is what a list page renders. Err is non-fatal: it is shown inline next
// to an empty list.
type Page[T any] struct {
	Items      []T
	Current    int
	TotalPages int
	Err        error
}

// Window returns the pagination items for the page.
func (p Page[T]) Window() []pagination.Item {
	return pagination.Window(p.Current, p.TotalPages)
}

// Empty reports an empty result without an error.
func (p Page[T]) Empty() bool {
	return p.Err == nil && len(p.Items) == 0
}

// Feedback is the transient message of a row action.
type Feedback struct {
	Message string
	Err     error
}

// OK reports whether the action succeeded.
func (f Feedback) OK() bool { return f.Err == nil }

// Options configure a List.
type Options struct {
	Limit  int
	Status string
	SortBy string
	Logger logrus.FieldLogger
}

// List is the state of one list page.
type List[T any] struct {
	name  string
	opts  Options
	fetch Fetcher[T]
	log   logrus.FieldLogger
	page  Page[T]
}

// New creates a list page named name (used in log lines).
func New[T any](name string, fetch Fetcher[T], opts Options) *List[T] {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &List[T]{
		name:  name,
		opts:  opts,
		fetch: fetch,
		log:   log.WithField("list", name),
		page:  Page[T]{Current: 1},
	}
}

// Load fetches page (1-based). Failures end up in Page.Err with an empty list.
func (l *List[T]) Load(ctx context.Context, page int) Page[T] {
	if page < 1 {
		page = 1
	}
	res, err := l.fetch(ctx, slotsdk.PageQuery{
		Page:   page,
		Limit:  l.opts.Limit,
		Status: l.opts.Status,
		SortBy: l.opts.SortBy,
	})
	if err != nil {
		l.log.WithError(err).WithField("page", page).Warn("load failed")
		l.page = Page[T]{Current: page, Err: err}
		return l.page
	}
	l.page = Page[T]{Items: res.Items, Current: page, TotalPages: res.TotalPages}
	return l.page
}

// GoTo loads page if it is inside the known range. It reports false and
// leaves the state untouched otherwise.
func (l *List[T]) GoTo(ctx context.Context, page int) (Page[T], bool) {
	if !pagination.Valid(page, l.page.TotalPages) {
		return l.page, false
	}
	return l.Load(ctx, page), true
}

// Current returns the last loaded page.
func (l *List[T]) Current() Page[T] {
	return l.page
}

// DoneMessage is shown when a successful action carries no server message.
const DoneMessage = "Aktion ausgeführt."

// Act runs a mutating row action. The server message becomes the feedback
// (failText when a failure carries none); on success the current page is
// refetched, on failure the rendered page is kept.
func (l *List[T]) Act(ctx context.Context, failText string, fn func(context.Context) (slotsdk.ActionResult, error)) Feedback {
	res, err := fn(ctx)
	if err != nil {
		l.log.WithError(err).Warn("action failed")
		return Feedback{Message: slotsdk.MessageOr(err, failText), Err: err}
	}
	msg := res.Message
	if msg == "" {
		msg = DoneMessage
	}
	l.Load(ctx, l.page.Current)
	return Feedback{Message: msg}
}
