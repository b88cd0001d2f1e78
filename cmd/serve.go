package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitcore/leadgen-cli/internal/model"
	"github.com/fitcore/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only status server",
	Long:  "Serves stored leads, social leads, counts, and batch reports over HTTP for dashboards.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/api/counts", func(w http.ResponseWriter, req *http.Request) {
			segments, err := st.CountsBySegment(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			statuses, err := st.CountsByStatus(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"segments": segments,
				"statuses": statuses,
			})
		})

		r.Get("/api/reports", func(w http.ResponseWriter, req *http.Request) {
			reports, err := st.ListBatchReports(req.Context(), queryInt(req, "limit", 20))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, reports)
		})

		r.Get("/api/leads", func(w http.ResponseWriter, req *http.Request) {
			filter := store.LeadFilter{
				Segment:       model.Segment(req.URL.Query().Get("segment")),
				Status:        model.OutreachStatus(req.URL.Query().Get("status")),
				MinConfidence: queryInt(req, "min_confidence", 0),
				Limit:         queryInt(req, "limit", 100),
				Offset:        queryInt(req, "offset", 0),
			}
			leads, err := st.ListLeads(req.Context(), filter)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, leads)
		})

		r.Get("/api/social-leads", func(w http.ResponseWriter, req *http.Request) {
			leads, err := st.ListSocialLeads(req.Context(), queryInt(req, "limit", 100))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, leads)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func queryInt(req *http.Request, key string, def int) int {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
