package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rep-ingest/internal/geography"
	"github.com/sells-group/rep-ingest/internal/model"
	"github.com/sells-group/rep-ingest/internal/pipeline"
	"github.com/sells-group/rep-ingest/internal/store"
)

var servePort int

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve on-demand ZIP ingestion and stored lookups over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		} else {
			cfg.Server.Port = port
		}

		env, err := initEnv(ctx, cfg, "serve", true)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Store, env.Orchestrator, env.Registry),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// zipProcessor runs one ZIP code through the pipeline.
type zipProcessor interface {
	Process(ctx context.Context, zip string) *model.ProcessingResult
}

var _ zipProcessor = (*pipeline.Orchestrator)(nil)

// storeReader is the read side of the store used by lookups.
type storeReader interface {
	GetGeography(ctx context.Context, zip string) (*model.Geography, error)
	ListRepresentativesByZIP(ctx context.Context, zip string) ([]model.Representative, error)
	Ping(ctx context.Context) error
}

var _ storeReader = (store.Store)(nil)

func newRouter(st storeReader, proc zipProcessor, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/zip/{zip}", func(w http.ResponseWriter, req *http.Request) {
		res := proc.Process(req.Context(), chi.URLParam(req, "zip"))
		respondJSON(w, resultStatus(res), res)
	})

	r.Get("/geography/{zip}", func(w http.ResponseWriter, req *http.Request) {
		zip := chi.URLParam(req, "zip")
		if err := geography.ValidateZIP(zip); err != nil {
			respondError(w, http.StatusBadRequest, (&pipeline.ValidationError{ZIP: zip}).Error())
			return
		}

		geo, err := st.GetGeography(req.Context(), zip)
		if err != nil {
			zap.L().Error("get geography", zap.String("zip", zip), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		if geo == nil {
			respondError(w, http.StatusNotFound, "geography not found")
			return
		}
		reps, err := st.ListRepresentativesByZIP(req.Context(), zip)
		if err != nil {
			zap.L().Error("list representatives", zap.String("zip", zip), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"geography":       geo,
			"representatives": reps,
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}

// resultStatus maps a processing outcome to an HTTP status by its error type.
func resultStatus(res *model.ProcessingResult) int {
	switch err := res.Err; {
	case res.Success:
		return http.StatusOK
	case pipeline.IsValidation(err):
		return http.StatusBadRequest
	case pipeline.IsNotFound(err):
		return http.StatusNotFound
	case pipeline.IsResolution(err):
		return http.StatusBadGateway
	case pipeline.IsPersistence(err):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
