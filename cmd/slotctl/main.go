package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"slotconsole/internal/app"
	"slotconsole/internal/collection"
	"slotconsole/internal/config"
	"slotconsole/internal/db"
	"slotconsole/internal/events"
	"slotconsole/internal/logging"
	"slotconsole/internal/view"
	slotsdk "slotconsole/sdk/go"
)

var v = app.NewViper()

var rootCmd = &cobra.Command{
	Use:   "slotctl",
	Short: "Slot and capacity-conflict console",
	Long: `slotctl is the operator console of the slot administration backend.
- Slots, Anfragen, Kapazitätstöpfe and Konflikte are listed page by page and shown in detail.
- Konfliktgruppen are coordinated in three phases: Verzicht/Verschub, Entgeltvergleich and Höchstpreisverfahren.
- Input entered for a group (waivers, operator orderings, bids) is kept as a draft in the workspace until it is submitted.
- Every submitted action is written to the journal, view it with 'slotctl log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := db.EnsureWorkspace(v.GetString("workspace"))
		return err
	},
}

func main() {
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("base-url", "", "backend API base URL (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = v.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = v.BindPFlag(app.KeyBaseURL, rootCmd.PersistentFlags().Lookup("base-url"))
	_ = v.BindPFlag(app.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(anfragenCmd())
	rootCmd.AddCommand(toepfeCmd())
	rootCmd.AddCommand(konflikteCmd())
	rootCmd.AddCommand(gruppenCmd())
	rootCmd.AddCommand(koordinationCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
}

// env is what a command needs to talk to the backend and the workspace.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	client *slotsdk.Client
	state  *app.State
	out    *view.Printer
}

func withEnv(ctx context.Context, fn func(context.Context, *env) error) error {
	workspace := v.GetString("workspace")
	cfg, err := app.Resolve(workspace, v)
	if err != nil {
		return err
	}
	log, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	state, err := app.OpenState(ctx, workspace)
	if err != nil {
		return err
	}
	defer state.Close()
	e := &env{
		cfg:    cfg,
		log:    log,
		client: app.NewClient(cfg, log, nil),
		state:  state,
		out:    printerFor(),
	}
	return fn(ctx, e)
}

// record journals one action. Journal failures are logged, never returned.
func (e *env) record(ctx context.Context, evt events.Event, fb collection.Feedback) {
	evt.RequestID = slotsdk.RequestIDFrom(ctx)
	evt.Message = fb.Message
	evt.Outcome = events.OutcomeOK
	if !fb.OK() {
		evt.Outcome = events.OutcomeFailed
	}
	if err := e.state.Journal.Append(ctx, evt); err != nil {
		e.log.WithError(err).WithField("type", evt.Type).Warn("journal append failed")
	}
}

// actionContext tags ctx with a fresh request id for one mutating call.
func actionContext(ctx context.Context) context.Context {
	return slotsdk.WithRequestID(ctx, uuid.NewString())
}

// loadError turns a blocking load failure into the command error.
func loadError(err error, fallback string) error {
	return fmt.Errorf("%s", slotsdk.MessageOr(err, fallback))
}

// feedbackError makes a failed action end with a non-zero exit after its
// message was printed.
func feedbackError(fb collection.Feedback) error {
	if fb.OK() {
		return nil
	}
	return errActionFailed
}

var errActionFailed = fmt.Errorf("action failed")

// parseZeit reads "HH:MM".
func parseZeit(s string) (slotsdk.Zeit, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return slotsdk.Zeit{}, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return slotsdk.Zeit{}, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return slotsdk.Zeit{}, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return slotsdk.Zeit{Stunde: hh, Minute: mm}, nil
}

func requireYes(yes bool, what string) error {
	if !yes {
		return fmt.Errorf("%s is not reversible; confirm with --yes", what)
	}
	return nil
}

func pageFlag(cmd *cobra.Command, page *int) {
	cmd.Flags().IntVarP(page, "page", "p", 1, "page number (1-based)")
}
