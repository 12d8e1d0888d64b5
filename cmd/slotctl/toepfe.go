package main

import (
	"context"

	"github.com/spf13/cobra"

	"slotconsole/internal/collection"
	"slotconsole/internal/dashboard"
	"slotconsole/internal/events"
	"slotconsole/internal/view"
	slotsdk "slotconsole/sdk/go"
)

func toepfeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "toepfe", Short: "Browse capacity pots"}
	cmd.AddCommand(toepfeListCmd())
	cmd.AddCommand(toepfeShowCmd())
	cmd.AddCommand(toepfeSummaryCmd())
	cmd.AddCommand(toepfeDeleteCmd())
	return cmd
}

func topfList(e *env) *collection.List[slotsdk.Kapazitaetstopf] {
	return collection.New("kapazitaetstoepfe", e.client.ListToepfe, collection.Options{
		Limit:  e.cfg.Pages.Toepfe,
		SortBy: "Kalenderwoche:asc",
		Logger: e.log,
	})
}

func toepfeListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List capacity pots by calendar week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				return e.out.Toepfe(topfList(e).Load(ctx, page))
			})
		},
	}
	pageFlag(cmd, &page)
	return cmd
}

func toepfeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one capacity pot with neighbours, slots and requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				t, err := e.client.GetTopf(ctx, args[0])
				if err != nil {
					return loadError(err, "Kapazitätstopf konnte nicht geladen werden.")
				}
				return e.out.Topf(t)
			})
		},
	}
}

func toepfeSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Capacity pots by section and traffic type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				rows, err := e.client.TopfSummary(ctx)
				if err != nil {
					return loadError(err, view.ToepfeFailed)
				}
				return e.out.TopfSummary(rows)
			})
		},
	}
}

func toepfeDeleteCmd() *cobra.Command {
	var (
		page int
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a capacity pot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(yes, "deleting a capacity pot"); err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				list := topfList(e)
				list.Load(ctx, page)
				ctx = actionContext(ctx)
				fb := list.Act(ctx, "Fehler beim Löschen des Kapazitätstopfs.", func(ctx context.Context) (slotsdk.ActionResult, error) {
					return e.client.DeleteTopf(ctx, args[0])
				})
				e.record(ctx, events.Event{Type: events.TypeTopfDeleted, EntityKind: "kapazitaetstopf", EntityID: args[0]}, fb)
				if err := e.out.Feedback(fb); err != nil {
					return err
				}
				if !e.out.JSON {
					if err := e.out.Toepfe(list.Current()); err != nil {
						return err
					}
				}
				return feedbackError(fb)
			})
		},
	}
	pageFlag(cmd, &page)
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func konflikteCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "konflikte", Short: "Browse and detect conflicts"}
	cmd.AddCommand(konflikteListCmd())
	cmd.AddCommand(konflikteShowCmd())
	cmd.AddCommand(konflikteIdentifyCmd())
	return cmd
}

func konflikteListCmd() *cobra.Command {
	var (
		page   int
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conflicts (open ones by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				list := collection.New("konflikte", e.client.ListKonflikte, collection.Options{Limit: e.cfg.Pages.Konflikte, Status: status, Logger: e.log})
				return e.out.Konflikte(list.Load(ctx, page))
			})
		},
	}
	pageFlag(cmd, &page)
	cmd.Flags().StringVar(&status, "status", "offen", "status filter")
	return cmd
}

func konflikteShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one conflict with its trigger and requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				d, err := e.client.GetKonflikt(ctx, args[0])
				if err != nil {
					return loadError(err, "Konflikt konnte nicht geladen werden.")
				}
				return e.out.Konflikt(d)
			})
		},
	}
}

func konflikteIdentifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Run pot conflict detection and group synchronisation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				d := dashboard.New(e.client, e.log)
				ctx = actionContext(ctx)
				fb := d.IdentifyConflicts(ctx)
				e.record(ctx, events.Event{Type: events.TypeConflictsDetected, EntityKind: "konflikt"}, fb)
				return printDashboardAction(e, d, fb)
			})
		},
	}
}
