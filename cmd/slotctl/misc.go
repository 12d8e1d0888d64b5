package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"slotconsole/internal/app"
	"slotconsole/internal/config"
	"slotconsole/internal/dashboard"
	"slotconsole/internal/repo"
	"slotconsole/internal/server"
	"slotconsole/internal/view"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Request pipeline and open conflict groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				o, err := dashboard.New(e.client, e.log).Load(ctx)
				if err != nil {
					return loadError(err, dashboard.LoadFailedMessage)
				}
				return e.out.Dashboard(o)
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				if addr == "" {
					addr = e.cfg.Serve.Addr
				}
				metrics := server.NewMetrics()
				client := app.NewClient(e.cfg, e.log, metrics.Transport(nil))
				handler, err := server.New(server.Config{
					Backend:  client,
					Drafts:   e.state.Repo,
					Journal:  e.state.Repo,
					BasePath: basePath,
					Auth:     server.AuthConfig{JWTSecret: e.cfg.Serve.JWTSecret},
					Logger:   e.log,
					Metrics:  metrics,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(sctx)
				}()
				e.log.WithFields(logrus.Fields{"addr": addr, "base_path": basePath, "auth": e.cfg.Serve.JWTSecret != ""}).Info("serving console api")
				fmt.Printf("Serving slot console API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Inspect the action journal"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var (
		n          int
		entityKind string
		entityID   string
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := v.GetString("workspace")
			state, err := app.OpenState(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer state.Close()
			entries, err := state.Repo.TailJournal(cmd.Context(), repo.JournalFilter{EntityKind: entityKind, EntityID: entityID, Limit: n})
			if err != nil {
				return err
			}
			return printerFor().Journal(entries)
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of entries")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "filter by entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "filter by entity id")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Resolve(v.GetString("workspace"), v)
			if err != nil {
				return err
			}
			shown := *cfg
			shown.API.Token = mask(shown.API.Token)
			shown.Serve.JWTSecret = mask(shown.Serve.JWTSecret)
			if v.GetBool("json") {
				return printerFor().PrintJSON(shown)
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(shown)
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

func configInitCmd() *cobra.Command {
	var (
		token string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write slotconsole.yml (and the API token to .env)",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := v.GetString("workspace")
			baseURL := v.GetString(app.KeyBaseURL)
			if baseURL == "" {
				return fmt.Errorf("--base-url is required")
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if _, err := config.FromYAML([]byte(config.GenerateDefault(baseURL))); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(baseURL)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			if token == "" {
				return nil
			}
			envPath := filepath.Join(workspace, ".env")
			vars := map[string]string{}
			if _, err := os.Stat(envPath); err == nil {
				if vars, err = godotenv.Read(envPath); err != nil {
					return fmt.Errorf("read %s: %w", envPath, err)
				}
			}
			vars[app.EnvPrefix+"_API_TOKEN"] = token
			if err := godotenv.Write(vars, envPath); err != nil {
				return fmt.Errorf("write %s: %w", envPath, err)
			}
			if err := os.Chmod(envPath, 0o600); err != nil {
				return err
			}
			fmt.Printf("Stored API token in %s\n", envPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "backend bearer token (stored in .env)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}

func printerFor() *view.Printer {
	return view.New(os.Stdout, v.GetBool("json"))
}
