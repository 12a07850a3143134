package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// Start runs the preview server for an exported GeoJSON file. It sets up
// the router, registers the routes and listens until a stop signal
// arrives.
func Start(port int, geojsonPath string) {
	router := createRouter(geojsonPath)
	server := &http.Server{Addr: fmt.Sprintf(":%v", port), Handler: router}
	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		log.Info("Stop signal received, shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 5*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}

		log.Info("Server stopped successfully")
		serverStopCtx()
	}()

	log.Infof("POI preview started, running on port %v", port)

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}

	<-serverCtx.Done()
}

// createRouter creates and configures the router for the server.
func createRouter(geojsonPath string) http.Handler {
	router := chi.NewMux()
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(30 * time.Second))
	router.Use(chimiddleware.Compress(5, "application/json"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           600,
	}))

	api := humachi.New(router, createHumaConfig())
	registerRoutes(api, geojsonPath)

	return router
}

func createHumaConfig() huma.Config {
	humaConfig := huma.DefaultConfig("POI Preview", "1.0.0")
	humaConfig.CreateHooks = nil
	humaConfig.Info.Description = "Read-only preview of an exported Overture POI GeoJSON file."

	return humaConfig
}

func registerRoutes(api huma.API, geojsonPath string) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Status",
		Description: "Get the status of the preview server.",
	}, statusHandler(time.Now()))

	huma.Register(api, huma.Operation{
		OperationID: "pois",
		Method:      http.MethodGet,
		Path:        "/pois",
		Summary:     "POIs",
		Description: "Get the exported POIs as a GeoJSON FeatureCollection.",
	}, poisHandler(geojsonPath))
}
