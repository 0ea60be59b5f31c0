package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formsync/pkg/api"
	"formsync/pkg/config"
	"formsync/pkg/formsync"

	log "github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configPath := flag.String("config", "forms.toml", "Form configuration file")

	flag.Parse()
	if *verbose {
		// Set the log level to debug
		log.SetLevel(log.DebugLevel)
	}
	// Set the log format to include a leading timestamp in ISO8601 format
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warnf("Ignoring .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	opts, err := cfg.Config.SheetOptions()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	registry := api.NewRegistry(&cfg.Config, formsync.GoogleConnector(opts))
	warmUp(registry)

	server := &http.Server{
		Addr:              cfg.Config.Server.Listen,
		Handler:           api.GetRouter(registry),
		ReadHeaderTimeout: 2 * time.Second,
	}
	go startServer(server)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
	log.Info("Signalled, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("Shutdown: %v", err)
	}
}

// warmUp authorizes every form up front so the first submission does not
// pay for header discovery. Failures are retried on first use.
func warmUp(registry *api.Registry) {
	for _, id := range registry.FormIDs() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := registry.Session(ctx, id); err != nil {
			log.WithField("form", id).Warnf("Form not ready yet: %v", err)
		} else {
			log.WithField("form", id).Info("Form ready")
		}
		cancel()
	}
}

func startServer(server *http.Server) {
	log.Infof("listening for HTTP on: %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("ListenAndServeError: ", err)
	}
}
