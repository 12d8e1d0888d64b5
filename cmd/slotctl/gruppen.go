package main

import (
	"context"

	"github.com/spf13/cobra"

	"slotconsole/internal/collection"
	"slotconsole/internal/events"
	slotsdk "slotconsole/sdk/go"
)

func gruppenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "gruppen", Short: "Browse and reset conflict groups"}
	cmd.AddCommand(gruppenListCmd())
	cmd.AddCommand(gruppenShowCmd())
	cmd.AddCommand(gruppenResetCmd())
	return cmd
}

func kindFlag(cmd *cobra.Command, kind *string) {
	cmd.Flags().StringVar(kind, "kind", string(slotsdk.GroupKindTopf), "group kind (topf or slot)")
}

// gruppeList wraps the unpaginated group listing into a single page so row
// actions refetch it like any other list.
func gruppeList(e *env, kind slotsdk.GroupKind) *collection.List[slotsdk.KonfliktGruppe] {
	fetch := func(ctx context.Context, _ slotsdk.PageQuery) (slotsdk.Page[slotsdk.KonfliktGruppe], error) {
		items, err := e.client.ListGruppen(ctx, kind)
		if err != nil {
			return slotsdk.Page[slotsdk.KonfliktGruppe]{}, err
		}
		return slotsdk.Page[slotsdk.KonfliktGruppe]{Items: items, TotalPages: 1}, nil
	}
	return collection.New("konfliktgruppen", fetch, collection.Options{Logger: e.log})
}

func gruppenListCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conflict groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := slotsdk.ParseGroupKind(kind)
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				page := gruppeList(e, k).Load(ctx, 1)
				if page.Err != nil {
					return loadError(page.Err, "Konfliktgruppen konnten nicht geladen werden.")
				}
				return e.out.Gruppen(page.Items)
			})
		},
	}
	kindFlag(cmd, &kind)
	return cmd
}

func gruppenShowCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one conflict group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := slotsdk.ParseGroupKind(kind)
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				g, err := e.client.GetGruppe(ctx, k, args[0])
				if err != nil {
					return loadError(err, "Konfliktgruppe konnte nicht geladen werden.")
				}
				return e.out.Gruppe(g)
			})
		},
	}
	kindFlag(cmd, &kind)
	return cmd
}

func gruppenResetCmd() *cobra.Command {
	var (
		kind string
		yes  bool
	)
	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Reset a conflict group and its conflicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := slotsdk.ParseGroupKind(kind)
			if err != nil {
				return err
			}
			if err := requireYes(yes, "resetting a conflict group"); err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				list := gruppeList(e, k)
				list.Load(ctx, 1)
				ctx = actionContext(ctx)
				fb := list.Act(ctx, "Fehler beim Zurücksetzen der Gruppe.", func(ctx context.Context) (slotsdk.ActionResult, error) {
					return e.client.ResetGruppe(ctx, k, args[0])
				})
				e.record(ctx, events.Event{Type: events.TypeGroupReset, EntityKind: string(k), EntityID: args[0]}, fb)
				if fb.OK() {
					if err := e.state.Repo.DeleteDraft(ctx, string(k), args[0]); err != nil {
						e.log.WithError(err).Debug("drop draft after reset failed")
					}
				}
				if err := e.out.Feedback(fb); err != nil {
					return err
				}
				if fb.OK() && !e.out.JSON {
					if err := e.out.Gruppen(list.Current().Items); err != nil {
						return err
					}
				}
				return feedbackError(fb)
			})
		},
	}
	kindFlag(cmd, &kind)
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm reset")
	return cmd
}
