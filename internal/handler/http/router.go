package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// NewLogger builds the JSON logger shared by the request log and slog.Default.
func NewLogger(env string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)
}

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, payrollHandler PayrollHandler, batchHandler BatchHandler, settingsHandler SettingsHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/payroll", func(r chi.Router) {
		// Requires authentication
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired())

		r.Route("/calculate", func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionPayrollCalculate))
			r.Post("/", payrollHandler.Calculate)
			r.Post("/bulk", payrollHandler.BulkCalculate)
			r.Post("/department", payrollHandler.CalculateDepartment)
			r.Post("/all", payrollHandler.CalculateAll)
		})

		r.Route("/records", func(r chi.Router) {
			r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", payrollHandler.ListRecords)
			r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/{id}", payrollHandler.GetRecord)
			r.With(middleware.RequirePermission(user.PermissionPayrollApprove)).Patch("/{id}/status", payrollHandler.UpdateRecordStatus)
		})

		r.Route("/batches", func(r chi.Router) {
			r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", batchHandler.List)
			r.With(middleware.RequirePermission(user.PermissionBatchManage)).Post("/", batchHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/", batchHandler.Get)
				r.With(middleware.RequirePermission(user.PermissionPayrollView)).Get("/validation", batchHandler.Validate)
				r.With(middleware.RequirePermission(user.PermissionBatchManage)).Post("/status", batchHandler.ChangeStatus)

				r.Route("/recalculation", func(r chi.Router) {
					r.With(middleware.RequirePermission(user.PermissionRecalculationRequest)).Post("/request", batchHandler.RequestPermission)

					// Approver only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionRecalculationGrant))
						r.Post("/grant", batchHandler.GrantPermission)
						r.Post("/revoke", batchHandler.RevokePermission)
					})
				})

				r.With(middleware.RequirePermission(user.PermissionPayrollCalculate)).Post("/recalculate", batchHandler.Recalculate)
				r.With(middleware.RequirePermission(user.PermissionBatchManage)).Post("/rollback", batchHandler.Rollback)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionSettingsView))
			r.Get("/rules", settingsHandler.ListRules)
			r.Get("/rules/{id}", settingsHandler.GetRule)
			r.Get("/settings/global", settingsHandler.GetGlobalSettings)
			r.Get("/settings/departments/{departmentId}", settingsHandler.GetDepartmentSettings)
			r.Get("/settings/departments/{departmentId}/effective", settingsHandler.GetEffectiveSettings)
		})

		// Settings writes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(user.PermissionSettingsManage))
			r.Post("/rules", settingsHandler.CreateRule)
			r.Put("/rules/{id}", settingsHandler.UpdateRule)
			r.Put("/settings/global", settingsHandler.UpdateGlobalSettings)
			r.Put("/settings/departments/{departmentId}", settingsHandler.UpdateDepartmentSettings)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"route not found"}}`))
	})

	return r
}
