package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"slotconsole/internal/coordination"
	"slotconsole/internal/dashboard"
	"slotconsole/internal/pagination"
	"slotconsole/internal/repo"
	slotsdk "slotconsole/sdk/go"
)

// Backend is the slot backend as the console API uses it.
type Backend interface {
	coordination.Gateway
	dashboard.Source
}

// JournalReader lists recorded actions.
type JournalReader interface {
	TailJournal(ctx context.Context, f repo.JournalFilter) ([]repo.JournalEntry, error)
}

// Config for the HTTP API handler.
type Config struct {
	Backend  Backend
	Drafts   coordination.DraftStore
	Journal  JournalReader
	BasePath string
	Auth     AuthConfig
	Logger   logrus.FieldLogger
	Metrics  *Metrics
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"Konfliktgruppe nicht gefunden"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"status\":404}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the console API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Backend == nil {
		return nil, errors.New("server: backend required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(requestLogger(log))
	router.Use(metrics.middleware)
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	hcfg := huma.DefaultConfig("Slot Console API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)
	api.OpenAPI().Components.Schemas.Schema(reflect.TypeOf(apiError{}), true, "ApiError")
	group := huma.NewGroup(api, basePath)

	h := handlers{cfg: cfg, log: log}
	registerDocs(router, basePath)
	registerHealth(group)
	h.registerPagination(group)
	h.registerDashboard(group)
	h.registerKoordination(group)
	h.registerJournal(group)
	registerWhoami(group)
	registerOpenAPI(router, api, basePath, cfg.Auth.enabled())

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps backend and local failures onto the envelope. fallback is
// the message for failures that carry none.
func handleError(err error, fallback string) huma.StatusError {
	if err == nil {
		return nil
	}
	var apiErr *slotsdk.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return newAPIError(http.StatusNotFound, "not_found", slotsdk.MessageOr(err, fallback), nil)
	case errors.As(err, &apiErr):
		return newAPIError(http.StatusBadGateway, "backend_error", slotsdk.MessageOr(err, fallback), map[string]any{"status": apiErr.StatusCode})
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "backend_timeout", fallback, nil)
	default:
		return newAPIError(http.StatusBadGateway, "backend_unavailable", fallback, map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string, secured bool) {
	var (
		once sync.Once
		doc  []byte
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			if secured {
				applyAuthSecurity(oas, basePath)
			}
			doc, _ = json.Marshal(oas)
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{item.Get, item.Put, item.Post, item.Delete} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	oas.Security = security
	healthPath := path.Join("/", basePath, "health")
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{item.Get, item.Put, item.Post, item.Delete} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="de">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Slot Console API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type handlers struct {
	cfg Config
	log logrus.FieldLogger
}

type PaginationResponse struct {
	Current int               `json:"current"`
	Total   int               `json:"total"`
	Items   []pagination.Item `json:"items"`
	Labels  []string          `json:"labels"`
}

func (h handlers) registerPagination(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "pagination-window",
		Method:      http.MethodGet,
		Path:        "/pagination",
		Summary:     "Page-number window for a list page",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Current int `query:"current" minimum:"1" default:"1"`
		Total   int `query:"total" minimum:"0"`
	}) (*struct {
		Body PaginationResponse `json:"body"`
	}, error) {
		if input.Total > 0 && input.Current > input.Total {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "current must not exceed total", map[string]any{"current": input.Current, "total": input.Total})
		}
		items := pagination.Window(input.Current, input.Total)
		if items == nil {
			items = []pagination.Item{}
		}
		return &struct {
			Body PaginationResponse `json:"body"`
		}{Body: PaginationResponse{Current: input.Current, Total: input.Total, Items: items, Labels: pagination.Strings(items)}}, nil
	})
}

func (h handlers) registerDashboard(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Request pipeline and conflict-group overview",
		Errors:      []int{http.StatusBadGateway},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body dashboard.Overview `json:"body"`
	}, error) {
		o, err := dashboard.New(h.cfg.Backend, h.log).Load(ctx)
		if err != nil {
			return nil, handleError(err, dashboard.LoadFailedMessage)
		}
		return &struct {
			Body dashboard.Overview `json:"body"`
		}{Body: o}, nil
	})
}

func (h handlers) registerKoordination(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "koordination",
		Method:      http.MethodGet,
		Path:        "/gruppen/{kind}/{id}/koordination",
		Summary:     "Coordination state of a conflict group",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusBadGateway},
	}, func(ctx context.Context, input *struct {
		Kind string `path:"kind" enum:"topf,slot"`
		ID   string `path:"id"`
	}) (*struct {
		Body coordination.Snapshot `json:"body"`
	}, error) {
		kind, err := slotsdk.ParseGroupKind(input.Kind)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"kind": input.Kind})
		}
		c := coordination.New(h.cfg.Backend, kind, input.ID, coordination.Options{Drafts: h.cfg.Drafts, Logger: h.log})
		if err := c.Load(ctx); err != nil {
			return nil, handleError(err, coordination.LoadFailedMessage)
		}
		snap, err := c.Snapshot()
		if err != nil {
			return nil, handleError(err, coordination.LoadFailedMessage)
		}
		return &struct {
			Body coordination.Snapshot `json:"body"`
		}{Body: snap}, nil
	})
}

func (h handlers) registerJournal(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "journal",
		Method:      http.MethodGet,
		Path:        "/journal",
		Summary:     "Latest recorded console actions",
	}, func(ctx context.Context, input *struct {
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"20" minimum:"1" maximum:"200"`
	}) (*struct {
		Body []repo.JournalEntry `json:"body"`
	}, error) {
		items := []repo.JournalEntry{}
		if h.cfg.Journal != nil {
			got, err := h.cfg.Journal.TailJournal(ctx, repo.JournalFilter{EntityKind: input.EntityKind, EntityID: input.EntityID, Limit: input.Limit})
			if err != nil {
				return nil, newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
			}
			items = append(items, got...)
		}
		return &struct {
			Body []repo.JournalEntry `json:"body"`
		}{Body: items}, nil
	})
}

// WhoamiResponse describes the caller of the console API.
type WhoamiResponse struct {
	Authenticated bool     `json:"authenticated"`
	Subject       string   `json:"subject,omitempty"`
	Roles         []string `json:"roles"`
}

func registerWhoami(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Summary:     "Caller identity from the bearer token",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WhoamiResponse `json:"body"`
	}, error) {
		resp := WhoamiResponse{Roles: []string{}}
		if p, ok := PrincipalFrom(ctx); ok {
			resp.Authenticated = true
			resp.Subject = p.Subject
			resp.Roles = append(resp.Roles, p.Roles...)
		}
		return &struct {
			Body WhoamiResponse `json:"body"`
		}{Body: resp}, nil
	})
}
