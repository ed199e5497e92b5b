// printhubd is the daemon binary: it loads settings, wires every
// component spec.md §4 describes, and serves the HTTP API transport.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/auth"
	"github.com/innohassle/printhub/internal/config"
	"github.com/innohassle/printhub/internal/converter"
	"github.com/innohassle/printhub/internal/httpapi"
	"github.com/innohassle/printhub/internal/logging"
	"github.com/innohassle/printhub/internal/printbackend"
	"github.com/innohassle/printhub/internal/printerstatus"
	"github.com/innohassle/printhub/internal/printjob"
	"github.com/innohassle/printhub/internal/registry"
	"github.com/innohassle/printhub/internal/workerpool"
)

// workerPoolSize bounds the CPU-bound pool (conversion, PDF parsing) spec
// §5 calls for — a handful of concurrent jobs is plenty for a print-room
// appliance of this scale.
const workerPoolSize = 4

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML settings file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logging.New(settings.Environment == config.Development)
	log.Info().Str("environment", string(settings.Environment)).Msg("starting printhubd")

	if err := os.MkdirAll(settings.TempDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create temp dir")
	}

	reg := registry.New(settings)
	artifacts := artifact.New(settings.TempDir)

	printBackend := printbackend.New()
	statusAggregator := printerstatus.New(printBackend, reg)

	pool := workerpool.New(workerPoolSize)
	defer pool.Close()

	conv := converter.NewExecConverter(settings.ConverterEndpoint)
	printOrch := printjob.New(artifacts, printBackend, conv, pool, settings.TempDir)

	resolver := auth.NewHTTPIdentityResolver(settings.IdentityProviderURL, settings.IdentityProviderToken)
	authGate := auth.New(settings.IdentityProviderURL, settings.BotToken, resolver)

	// internal/statestore and internal/convoy back the Conversation FSM a
	// chat front-end would drive through internal/chatadapter.Transport;
	// no such transport is wired here, since no bot SDK exists in this
	// dependency surface to front it with. internal/convoy is exercised by
	// its own tests against an in-memory store; internal/statestore has no
	// tests of its own.
	server := httpapi.New(authGate, reg, statusAggregator, artifacts, printOrch, printBackend,
		settings.CORSAllowOriginRegex, log)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.Router(),
	}

	go func() {
		log.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(ctx)
	artifacts.OnTerminate()
}
