package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the validation reports for manual review",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})
		r.Get("/reports", listReports)
		r.Get("/reports/{name}", getReport)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		zap.L().Info("report server listening", zap.Int("port", port))

		select {
		case <-ctx.Done():
			return srv.Close()
		case err := <-errc:
			return eris.Wrap(err, "serve")
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default: config)")
	rootCmd.AddCommand(serveCmd)
}

type reportInfo struct {
	Subdivision string    `json:"subdivision"`
	Records     int       `json:"records,omitempty"`
	SafeEdits   bool      `json:"safe_edits"`
	Modified    time.Time `json:"modified"`
}

func listReports(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(cfg.Reports.Dir)
	if err != nil {
		http.Error(w, `{"error":"reports directory unavailable"}`, http.StatusInternalServerError)
		return
	}

	var reports []reportInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".safe.json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		subdivision := strings.TrimSuffix(name, ".json")
		_, safeErr := os.Stat(filepath.Join(cfg.Reports.Dir, subdivision+".safe.json"))
		reports = append(reports, reportInfo{
			Subdivision: subdivision,
			SafeEdits:   safeErr == nil,
			Modified:    info.ModTime().UTC(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reports)
}

func getReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		http.Error(w, `{"error":"bad report name"}`, http.StatusBadRequest)
		return
	}
	path := filepath.Join(cfg.Reports.Dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, `{"error":"report not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
