// Package dashboard is the coordination overview: request pipeline counters
// and the open conflict groups, plus the two bulk actions.
package dashboard

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"slotconsole/internal/collection"
	slotsdk "slotconsole/sdk/go"
)

// LoadFailedMessage is shown when the overview cannot be built.
const LoadFailedMessage = "Daten konnten nicht geladen werden."

const (
	assignFallback   = "Ein Fehler ist bei der Massen-Zuweisung aufgetreten."
	identifyFallback = "Ein Fehler ist bei der Konflikterkennung aufgetreten."
)

// Source is the part of the backend client the dashboard reads from.
type Source interface {
	AnfrageSummary(ctx context.Context) ([]slotsdk.AnfrageSummaryRow, error)
	ListGruppen(ctx context.Context, kind slotsdk.GroupKind) ([]slotsdk.KonfliktGruppe, error)
	ZuordnenAlleValidierten(ctx context.Context) (slotsdk.ZuordnungSummary, string, error)
	IdentifiziereTopfKonflikte(ctx context.Context) (slotsdk.IdentifikationResult, error)
}

// Pipeline sums request counts per status over all summary rows.
type Pipeline struct {
	Eingegangen    int `json:"eingegangen"`
	Validiert      int `json:"validiert"`
	Ungueltig      int `json:"ungueltig"`
	InPruefungTopf int `json:"inPruefungTopf"`
	InKonflikt     int `json:"inKonflikt"`
	InPruefungSlot int `json:"inPruefungSlot"`
	Bestaetigt     int `json:"bestaetigt"`
	Abgelehnt      int `json:"abgelehnt"`
	Teilzuweisung  int `json:"teilzuweisung"`
	Storniert      int `json:"storniert"`
	KeinePlausi    int `json:"keinePlausi"`
}

// Counters returns the pipeline as label/count pairs in display order.
func (p Pipeline) Counters() []Counter {
	return []Counter{
		{"eingegangen", p.Eingegangen},
		{"validiert", p.Validiert},
		{"ungueltig", p.Ungueltig},
		{"inPruefungTopf", p.InPruefungTopf},
		{"inKonflikt", p.InKonflikt},
		{"inPruefungSlot", p.InPruefungSlot},
		{"bestaetigt", p.Bestaetigt},
		{"abgelehnt", p.Abgelehnt},
		{"teilzuweisung", p.Teilzuweisung},
		{"storniert", p.Storniert},
		{"keinePlausi", p.KeinePlausi},
	}
}

type Counter struct {
	Status string `json:"status"`
	Count  int    `json:"anzahl"`
}

// SumPipeline adds up the status counts of all rows. Missing statuses count 0.
func SumPipeline(rows []slotsdk.AnfrageSummaryRow) Pipeline {
	var p Pipeline
	for _, r := range rows {
		c := r.StatusCounts
		p.Eingegangen += c["eingegangen"]
		p.Validiert += c["validiert"]
		p.Ungueltig += c["ungueltig"]
		p.InPruefungTopf += c["inPruefungTopf"]
		p.InKonflikt += c["inKonflikt"]
		p.InPruefungSlot += c["inPruefungSlot"]
		p.Bestaetigt += c["bestaetigt"]
		p.Abgelehnt += c["abgelehnt"]
		p.Teilzuweisung += c["teilzuweisung"]
		p.Storniert += c["storniert"]
		p.KeinePlausi += c["keinePlausi"]
	}
	return p
}

// Overview is the joined result of both reads.
type Overview struct {
	Pipeline      Pipeline                    `json:"pipeline"`
	Summary       []slotsdk.AnfrageSummaryRow `json:"summary"`
	Gruppen       []slotsdk.KonfliktGruppe    `json:"gruppen"`
	OffeneGruppen int                         `json:"offeneGruppen"`
	GruppenStatus map[string]int              `json:"gruppenNachStatus"`
}

type Dashboard struct {
	src  Source
	log  logrus.FieldLogger
	last Overview
}

func New(src Source, log logrus.FieldLogger) *Dashboard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dashboard{src: src, log: log.WithField("page", "dashboard")}
}

// Load runs both reads in parallel. Either failure fails the whole overview;
// no partial data is returned.
func (d *Dashboard) Load(ctx context.Context) (Overview, error) {
	var (
		summary []slotsdk.AnfrageSummaryRow
		gruppen []slotsdk.KonfliktGruppe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := d.src.AnfrageSummary(gctx)
		if err != nil {
			return fmt.Errorf("anfragen summary: %w", err)
		}
		summary = rows
		return nil
	})
	g.Go(func() error {
		list, err := d.src.ListGruppen(gctx, slotsdk.GroupKindTopf)
		if err != nil {
			return fmt.Errorf("konfliktgruppen: %w", err)
		}
		gruppen = list
		return nil
	})
	if err := g.Wait(); err != nil {
		d.log.WithError(err).Warn("load failed")
		d.last = Overview{}
		return Overview{}, err
	}
	ov := Overview{
		Pipeline:      SumPipeline(summary),
		Summary:       summary,
		Gruppen:       gruppen,
		GruppenStatus: map[string]int{},
	}
	for _, gr := range gruppen {
		ov.GruppenStatus[gr.Status]++
		if gr.Status == "offen" {
			ov.OffeneGruppen++
		}
	}
	d.last = ov
	return ov, nil
}

// Current returns the last loaded overview.
func (d *Dashboard) Current() Overview { return d.last }

// refresh reloads after a successful action. A failed reload keeps the
// action's message.
func (d *Dashboard) refresh(ctx context.Context) {
	if _, err := d.Load(ctx); err != nil {
		d.log.WithError(err).Debug("refresh after action failed")
	}
}

// AssignAll assigns every validated request to slots.
func (d *Dashboard) AssignAll(ctx context.Context) collection.Feedback {
	sum, _, err := d.src.ZuordnenAlleValidierten(ctx)
	if err != nil {
		d.log.WithError(err).Warn("assign all failed")
		return collection.Feedback{Message: assignFallback, Err: err}
	}
	d.refresh(ctx)
	return collection.Feedback{Message: fmt.Sprintf("Prozess abgeschlossen: %d erfolgreich, %d fehlgeschlagen.", sum.Success, sum.Failed)}
}

// IdentifyConflicts runs pot conflict detection and group synchronisation.
func (d *Dashboard) IdentifyConflicts(ctx context.Context) collection.Feedback {
	res, err := d.src.IdentifiziereTopfKonflikte(ctx)
	if err != nil {
		d.log.WithError(err).Warn("identify conflicts failed")
		return collection.Feedback{Message: identifyFallback, Err: err}
	}
	d.refresh(ctx)
	return collection.Feedback{Message: fmt.Sprintf("Prozess abgeschlossen: %d neue Konflikte, %d aktualisierte Konflikte.",
		len(res.NeuErstellteKonflikte), len(res.AktualisierteUndGeoeffneteKonflikte))}
}
