package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slotconsole/internal/collection"
	"slotconsole/internal/dashboard"
	"slotconsole/internal/events"
	"slotconsole/internal/forms"
	"slotconsole/internal/view"
	slotsdk "slotconsole/sdk/go"
)

func anfragenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "anfragen", Short: "Browse, create and assign Anfragen"}
	cmd.AddCommand(anfragenListCmd())
	cmd.AddCommand(anfragenShowCmd())
	cmd.AddCommand(anfragenSummaryCmd())
	cmd.AddCommand(anfragenCreateCmd())
	cmd.AddCommand(anfragenResetCmd())
	cmd.AddCommand(anfragenAssignAllCmd())
	return cmd
}

func anfrageList(e *env, status string) *collection.List[slotsdk.Anfrage] {
	return collection.New("anfragen", e.client.ListAnfragen, collection.Options{Limit: e.cfg.Pages.Anfragen, Status: status, Logger: e.log})
}

func anfragenListCmd() *cobra.Command {
	var (
		page   int
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Anfragen",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				return e.out.Anfragen(anfrageList(e, status).Load(ctx, page))
			})
		},
	}
	pageFlag(cmd, &page)
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func anfragenShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one Anfrage with its segments and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				a, err := e.client.GetAnfrage(ctx, args[0])
				if err != nil {
					return loadError(err, "Anfrage konnte nicht geladen werden.")
				}
				return e.out.Anfrage(a)
			})
		},
	}
}

func anfragenSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Anfragen by operator and traffic type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				rows, err := e.client.AnfrageSummary(ctx)
				if err != nil {
					return loadError(err, view.AnfragenFailed)
				}
				return e.out.AnfrageSummary(rows)
			})
		},
	}
}

// parseAbschnitt reads "Von,Bis,HH:MM,HH:MM".
func parseAbschnitt(s string) (forms.Abschnitt, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return forms.Abschnitt{}, fmt.Errorf("invalid segment %q (want von,bis,HH:MM,HH:MM)", s)
	}
	ab, err := parseZeit(parts[2])
	if err != nil {
		return forms.Abschnitt{}, err
	}
	an, err := parseZeit(parts[3])
	if err != nil {
		return forms.Abschnitt{}, err
	}
	return forms.Abschnitt{
		Von:           strings.TrimSpace(parts[0]),
		Bis:           strings.TrimSpace(parts[1]),
		AbfahrtStunde: ab.Stunde,
		AbfahrtMinute: ab.Minute,
		AnkunftStunde: an.Stunde,
		AnkunftMinute: an.Minute,
	}, nil
}

func anfragenCreateCmd() *cobra.Command {
	f := forms.DefaultAnfrageForm()
	var segments []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an Anfrage",
		Example: `  slotctl anfragen create --zugnummer 4711 --evu "DB Fernverkehr" --start 2025-01-06 --ende 2025-03-30 \
    --abschnitt "Köln,Bonn,08:00,08:25" --abschnitt "Bonn,Koblenz,08:30,09:10"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, s := range segments {
				a, err := parseAbschnitt(s)
				if err != nil {
					return err
				}
				if i == 0 {
					f = f.UpdateAbschnitt(0, a)
					continue
				}
				f = f.AddAbschnitt(a)
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				ctx = actionContext(ctx)
				_, res := forms.SubmitAnfrage(ctx, e.client, f)
				if res.Fields == nil {
					e.record(ctx, events.Event{Type: events.TypeAnfrageCreated, EntityKind: "anfrage", Payload: events.EventPayload{"zugnummer": f.Zugnummer, "evu": f.EVU}},
						collection.Feedback{Message: res.Message, Err: res.Err})
				}
				if err := e.out.FormResult(res); err != nil {
					return err
				}
				return feedbackError(collection.Feedback{Err: res.Err})
			})
		},
	}
	cmd.Flags().StringVar(&f.Zugnummer, "zugnummer", "", "train number")
	cmd.Flags().StringVar(&f.EVU, "evu", "", "operator")
	cmd.Flags().StringVar(&f.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&f.Verkehrsart, "verkehrsart", f.Verkehrsart, "traffic type (SPFV, SPNV, SGV)")
	cmd.Flags().StringVar(&f.Verkehrstag, "verkehrstag", f.Verkehrstag, "traffic day (täglich, Mo-Fr, Sa+So)")
	cmd.Flags().StringVar(&f.ZeitraumStart, "start", "", "period start YYYY-MM-DD")
	cmd.Flags().StringVar(&f.ZeitraumEnde, "ende", "", "period end YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&segments, "abschnitt", nil, "segment von,bis,HH:MM,HH:MM (repeatable)")
	return cmd
}

func anfragenResetCmd() *cobra.Command {
	var (
		page int
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Reset the slot assignment of an Anfrage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(yes, "resetting an assignment"); err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				list := anfrageList(e, "")
				list.Load(ctx, page)
				ctx = actionContext(ctx)
				fb := list.Act(ctx, "Fehler beim Zurücksetzen der Zuordnung.", func(ctx context.Context) (slotsdk.ActionResult, error) {
					return e.client.ResetZuordnung(ctx, args[0])
				})
				e.record(ctx, events.Event{Type: events.TypeAnfrageReset, EntityKind: "anfrage", EntityID: args[0]}, fb)
				if err := e.out.Feedback(fb); err != nil {
					return err
				}
				if !e.out.JSON {
					if err := e.out.Anfragen(list.Current()); err != nil {
						return err
					}
				}
				return feedbackError(fb)
			})
		},
	}
	pageFlag(cmd, &page)
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm reset")
	return cmd
}

func anfragenAssignAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign-all",
		Short: "Assign every validated Anfrage to slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				d := dashboard.New(e.client, e.log)
				ctx = actionContext(ctx)
				fb := d.AssignAll(ctx)
				e.record(ctx, events.Event{Type: events.TypeAssignAll, EntityKind: "anfrage"}, fb)
				return printDashboardAction(e, d, fb)
			})
		},
	}
}

// printDashboardAction prints an action's message followed by the refreshed
// overview when it succeeded.
func printDashboardAction(e *env, d *dashboard.Dashboard, fb collection.Feedback) error {
	if err := e.out.Feedback(fb); err != nil {
		return err
	}
	if fb.OK() && !e.out.JSON {
		if err := e.out.Dashboard(d.Current()); err != nil {
			return err
		}
	}
	return feedbackError(fb)
}
