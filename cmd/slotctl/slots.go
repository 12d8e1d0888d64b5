package main

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"slotconsole/internal/collection"
	"slotconsole/internal/events"
	"slotconsole/internal/forms"
	"slotconsole/internal/view"
	slotsdk "slotconsole/sdk/go"
)

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "slots", Short: "Browse and create slots"}
	cmd.AddCommand(slotsListCmd())
	cmd.AddCommand(slotsShowCmd())
	cmd.AddCommand(slotsSummaryCmd())
	cmd.AddCommand(slotsCounterCmd())
	cmd.AddCommand(slotsPatternCmd())
	cmd.AddCommand(slotsCreateCmd())
	cmd.AddCommand(slotsBulkDeleteCmd())
	return cmd
}

func slotList(e *env) *collection.List[slotsdk.Slot] {
	return collection.New("slots", e.client.ListSlots, collection.Options{Limit: e.cfg.Pages.Slots, Logger: e.log})
}

func slotsListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				return e.out.Slots(slotList(e).Load(ctx, page))
			})
		},
	}
	pageFlag(cmd, &page)
	return cmd
}

func slotsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				s, err := e.client.GetSlot(ctx, args[0])
				if err != nil {
					return loadError(err, "Slot konnte nicht geladen werden.")
				}
				return e.out.Slot(s)
			})
		},
	}
}

func slotsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Slot summary by line, section and traffic day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				rows, err := e.client.SlotSummary(ctx)
				if err != nil {
					return loadError(err, view.SlotsFailed)
				}
				return e.out.SlotSummary(rows)
			})
		},
	}
}

func slotsCounterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counter",
		Short: "Count slot patterns per section",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				groups, err := e.client.SlotCounter(ctx)
				if err != nil {
					return loadError(err, view.SlotsFailed)
				}
				return e.out.SlotCounter(groups)
			})
		},
	}
}

type musterFlags struct {
	von, bis, abschnitt, verkehrsart string
	abfahrt, ankunft                 string
}

func (f *musterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.von, "von", "", "start station")
	cmd.Flags().StringVar(&f.bis, "bis", "", "end station")
	cmd.Flags().StringVar(&f.abschnitt, "abschnitt", "", "section")
	cmd.Flags().StringVar(&f.verkehrsart, "verkehrsart", "", "traffic type (SPFV, SPNV, SGV)")
	cmd.Flags().StringVar(&f.abfahrt, "abfahrt", "", "departure HH:MM")
	cmd.Flags().StringVar(&f.ankunft, "ankunft", "", "arrival HH:MM")
	for _, name := range []string{"von", "bis", "verkehrsart", "abfahrt", "ankunft"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *musterFlags) muster() (slotsdk.SlotMuster, error) {
	ab, err := parseZeit(f.abfahrt)
	if err != nil {
		return slotsdk.SlotMuster{}, err
	}
	an, err := parseZeit(f.ankunft)
	if err != nil {
		return slotsdk.SlotMuster{}, err
	}
	return slotsdk.SlotMuster{Von: f.von, Bis: f.bis, Abschnitt: f.abschnitt, Verkehrsart: f.verkehrsart, Abfahrt: ab, Ankunft: an}, nil
}

func slotsPatternCmd() *cobra.Command {
	var mf musterFlags
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "List the slots of one timetable pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.muster()
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				slots, err := e.client.SlotsByMuster(ctx, m)
				if err != nil {
					return loadError(err, view.SlotsFailed)
				}
				return e.out.SlotPattern(m, slots)
			})
		},
	}
	mf.bind(cmd)
	return cmd
}

func slotsBulkDeleteCmd() *cobra.Command {
	var (
		mf  musterFlags
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "bulk-delete",
		Short: "Delete every slot of one timetable pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.muster()
			if err != nil {
				return err
			}
			if err := requireYes(yes, "deleting slots"); err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				slots, err := e.client.SlotsByMuster(ctx, m)
				if err != nil {
					return loadError(err, view.SlotsFailed)
				}
				if len(slots) == 0 {
					e.out.Info("Keine Slots für dieses Muster gefunden.")
					return nil
				}
				ids := make([]string, len(slots))
				for i, s := range slots {
					ids[i] = s.ID
				}
				ctx = actionContext(ctx)
				list := slotList(e)
				fb := list.Act(ctx, "Fehler beim Löschen der Slots.", func(ctx context.Context) (slotsdk.ActionResult, error) {
					return e.client.BulkDeleteSlots(ctx, ids)
				})
				e.record(ctx, events.Event{Type: events.TypeSlotsDeleted, EntityKind: "slot", Payload: events.EventPayload{"muster": m, "slotIds": ids}}, fb)
				if err := e.out.Feedback(fb); err != nil {
					return err
				}
				if fb.OK() && !e.out.JSON {
					if err := e.out.Slots(list.Current()); err != nil {
						return err
					}
				}
				return feedbackError(fb)
			})
		},
	}
	mf.bind(cmd)
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func slotsCreateCmd() *cobra.Command {
	f := forms.DefaultSlotForm()
	var abfahrt, ankunft, entgelt string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one slot per calendar week of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ab, err := parseZeit(abfahrt)
			if err != nil {
				return err
			}
			an, err := parseZeit(ankunft)
			if err != nil {
				return err
			}
			fee, err := decimal.NewFromString(entgelt)
			if err != nil {
				return err
			}
			f.AbfahrtStunde, f.AbfahrtMinute = ab.Stunde, ab.Minute
			f.AnkunftStunde, f.AnkunftMinute = an.Stunde, an.Minute
			f.Grundentgelt = fee
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				ctx = actionContext(ctx)
				_, res := forms.SubmitSlots(ctx, e.client, f)
				if res.Fields == nil {
					e.record(ctx, events.Event{Type: events.TypeSlotsCreated, EntityKind: "slot", Payload: events.EventPayload{"linie": f.Linienbezeichnung, "abschnitt": f.Abschnitt}},
						collection.Feedback{Message: res.Message, Err: res.Err})
				}
				if err := e.out.FormResult(res); err != nil {
					return err
				}
				return feedbackError(collection.Feedback{Err: res.Err})
			})
		},
	}
	cmd.Flags().StringVar(&f.Linienbezeichnung, "linie", "", "line name")
	cmd.Flags().StringVar(&f.Von, "von", "", "start station")
	cmd.Flags().StringVar(&f.Bis, "bis", "", "end station")
	cmd.Flags().StringVar(&f.Abschnitt, "abschnitt", "", "section")
	cmd.Flags().StringVar(&abfahrt, "abfahrt", "08:00", "departure HH:MM")
	cmd.Flags().StringVar(&ankunft, "ankunft", "09:00", "arrival HH:MM")
	cmd.Flags().StringVar(&f.Verkehrstag, "verkehrstag", f.Verkehrstag, "traffic day (täglich, Mo-Fr, Sa+So)")
	cmd.Flags().StringVar(&entgelt, "grundentgelt", f.Grundentgelt.String(), "base fee")
	cmd.Flags().StringVar(&f.Verkehrsart, "verkehrsart", f.Verkehrsart, "traffic type (SPFV, SPNV, SGV)")
	cmd.Flags().StringVar(&f.ZeitraumStart, "start", "", "period start YYYY-MM-DD")
	cmd.Flags().StringVar(&f.ZeitraumEnde, "ende", "", "period end YYYY-MM-DD")
	return cmd
}
