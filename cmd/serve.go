package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snapatlas/enrich/internal/model"
	"github.com/snapatlas/enrich/internal/workflow"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := buildEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e.Engine),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func newRouter(engine *workflow.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
		input, err := decodeEnrichRequest(req)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		state := engine.Run(req.Context(), *input)
		if state.Failed() {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"run_id": state.RunID,
				"error":  state.Error,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"run_id": state.RunID,
			"result": state.FinalResult,
		})
	})

	return r
}

// decodeEnrichRequest accepts either multipart form data with an "image"
// file, or a JSON body with base64 image content.
func decodeEnrichRequest(req *http.Request) (*model.Input, error) {
	contentType := req.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := req.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("invalid multipart body")
		}
		file, header, err := req.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("image file is required")
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read image: %v", err)
		}

		return &model.Input{
			Image:    image,
			MIMEType: header.Header.Get("Content-Type"),
			Filename: header.Filename,
			GPS:      req.FormValue("gps"),
			Device:   req.FormValue("device"),
		}, nil
	}

	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	var body struct {
		Image          string            `json:"image"`
		MIMEType       string            `json:"mime_type"`
		Filename       string            `json:"filename"`
		Metadata       map[string]string `json:"metadata"`
		GPS            string            `json:"gps"`
		Device         string            `json:"device"`
		ModelOverrides map[string]string `json:"model_overrides"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if body.Image == "" {
		return nil, fmt.Errorf("image is required")
	}

	image, err := base64.StdEncoding.DecodeString(body.Image)
	if err != nil {
		return nil, fmt.Errorf("image must be base64 encoded")
	}

	return &model.Input{
		Image:          image,
		MIMEType:       body.MIMEType,
		Filename:       body.Filename,
		Metadata:       body.Metadata,
		GPS:            body.GPS,
		Device:         body.Device,
		ModelOverrides: body.ModelOverrides,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (defaults to server.port)")
	rootCmd.AddCommand(serveCmd)
}
