package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"slotconsole/internal/collection"
	"slotconsole/internal/coordination"
	slotsdk "slotconsole/sdk/go"
)

func koordinationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "koordination",
		Aliases: []string{"koord"},
		Short:   "Coordinate a conflict group through its resolution phases",
	}
	var kind string
	cmd.PersistentFlags().StringVar(&kind, "kind", string(slotsdk.GroupKindTopf), "group kind (topf or slot)")
	cmd.AddCommand(koordShowCmd(&kind))
	cmd.AddCommand(koordWaiveCmd(&kind))
	cmd.AddCommand(koordAnalyseCmd(&kind))
	cmd.AddCommand(koordSubmitWaiversCmd(&kind))
	cmd.AddCommand(koordMoveCmd(&kind))
	cmd.AddCommand(koordSubmitFeesCmd(&kind))
	cmd.AddCommand(koordBidCmd(&kind))
	cmd.AddCommand(koordSubmitBidsCmd(&kind))
	cmd.AddCommand(koordDraftsCmd())
	return cmd
}

// withController loads group id, runs fn and prints the resulting snapshot.
func withController(cmd *cobra.Command, kind, id string, fn func(context.Context, *env, *coordination.Controller) error) error {
	k, err := slotsdk.ParseGroupKind(kind)
	if err != nil {
		return err
	}
	return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
		c := coordination.New(e.client, k, id, coordination.Options{
			Drafts:  e.state.Repo,
			Journal: e.state.Journal,
			Logger:  e.log,
		})
		if err := c.Load(ctx); err != nil {
			return loadError(err, coordination.LoadFailedMessage)
		}
		if fn != nil {
			if err := fn(ctx, e, c); err != nil {
				return err
			}
		}
		s, err := c.Snapshot()
		if err != nil {
			return err
		}
		return e.out.Koordination(s)
	})
}

// editAndPersist applies a local edit and stores the draft.
func editAndPersist(edit func(*coordination.Controller) error) func(context.Context, *env, *coordination.Controller) error {
	return func(ctx context.Context, e *env, c *coordination.Controller) error {
		if err := edit(c); err != nil {
			return err
		}
		return c.Persist(ctx)
	}
}

// submitStep runs a phase command and prints its message. A failure is
// followed by the unchanged snapshot and a non-zero exit.
func submitStep(run func(context.Context, *coordination.Controller) collection.Feedback) func(context.Context, *env, *coordination.Controller) error {
	return func(ctx context.Context, e *env, c *coordination.Controller) error {
		fb := run(ctx, c)
		if e.out.JSON {
			if fb.OK() {
				return nil
			}
			_ = e.out.Feedback(fb)
			return errActionFailed
		}
		if err := e.out.Feedback(fb); err != nil {
			return err
		}
		if fb.OK() {
			return nil
		}
		if s, err := c.Snapshot(); err == nil {
			_ = e.out.Koordination(s)
		}
		return errActionFailed
	}
}

func koordShowCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <gruppe>",
		Short: "Show a group's phase, summary and pending input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, *kind, args[0], nil)
		},
	}
}

func koordWaiveCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "waive <gruppe> <anfrage>...",
		Short: "Toggle the waiver mark of one or more requests",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, *kind, args[0], editAndPersist(func(c *coordination.Controller) error {
				for _, id := range args[1:] {
					if _, err := c.ToggleWaiver(id); err != nil {
						return err
					}
				}
				return nil
			}))
		},
	}
}

func koordAnalyseCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyse <gruppe> verschiebe|alternativen",
		Short: "Run a read-only shift or alternatives analysis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ak, err := coordination.ParseAnalyseKind(args[1])
			if err != nil {
				return err
			}
			k, err := slotsdk.ParseGroupKind(*kind)
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				c := coordination.New(e.client, k, args[0], coordination.Options{Journal: e.state.Journal, Logger: e.log})
				a, fb := c.Analyse(ctx, ak)
				if !fb.OK() {
					if err := e.out.Feedback(fb); err != nil {
						return err
					}
					return errActionFailed
				}
				return e.out.Analysis(a)
			})
		},
	}
}

func koordSubmitWaiversCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit-waivers <gruppe>",
		Short: "Submit the marked waivers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, *kind, args[0], submitStep(func(ctx context.Context, c *coordination.Controller) collection.Feedback {
				return c.SubmitWaivers(ctx)
			}))
		},
	}
}

func koordMoveCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <gruppe> <anfrage> up|down",
		Short: "Move a request within its operator's ordering",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var delta int
			switch args[2] {
			case "up":
				delta = -1
			case "down":
				delta = 1
			default:
				return fmt.Errorf("unknown direction %q (want up or down)", args[2])
			}
			return withController(cmd, *kind, args[0], editAndPersist(func(c *coordination.Controller) error {
				return c.Move(args[1], delta)
			}))
		},
	}
}

func koordSubmitFeesCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit-fees <gruppe>",
		Short: "Submit the operator orderings for the fee comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, *kind, args[0], submitStep(func(ctx context.Context, c *coordination.Controller) collection.Feedback {
				return c.SubmitFeeComparison(ctx)
			}))
		},
	}
}

func koordBidCmd(kind *string) *cobra.Command {
	var drop bool
	cmd := &cobra.Command{
		Use:   "bid <gruppe> <anfrage> [betrag]",
		Short: "Enter or clear the highest-price bid of a request",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !drop && len(args) != 3 {
				return fmt.Errorf("bid amount required (or --clear)")
			}
			return withController(cmd, *kind, args[0], editAndPersist(func(c *coordination.Controller) error {
				if drop {
					return c.ClearBid(args[1])
				}
				return c.SetBid(args[1], args[2])
			}))
		},
	}
	cmd.Flags().BoolVar(&drop, "clear", false, "remove the bid")
	return cmd
}

func koordSubmitBidsCmd(kind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit-bids <gruppe>",
		Short: "Submit the highest-price bids (missing bids count as 0)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd, *kind, args[0], submitStep(func(ctx context.Context, c *coordination.Controller) collection.Feedback {
				return c.SubmitBids(ctx)
			}))
		},
	}
}

func koordDraftsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List groups with unsent input",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				drafts, err := e.state.Repo.ListDrafts(ctx)
				if err != nil {
					return err
				}
				return e.out.Drafts(drafts)
			})
		},
	}
}
