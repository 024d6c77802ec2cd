package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tdnguyen/sorting-station/controller/internal/config"
	"github.com/tdnguyen/sorting-station/controller/internal/dispatch"
	"github.com/tdnguyen/sorting-station/controller/internal/gate"
	"github.com/tdnguyen/sorting-station/controller/internal/httpapi"
	"github.com/tdnguyen/sorting-station/controller/internal/journal"
	"github.com/tdnguyen/sorting-station/controller/internal/mqttio"
	"github.com/tdnguyen/sorting-station/controller/internal/projection"
	"github.com/tdnguyen/sorting-station/controller/internal/station"
	"github.com/tdnguyen/sorting-station/controller/internal/vision"
)

// #region main

func main() {
	cfg := config.Load()
	if cfg.BrokerURL == "" {
		log.Fatal("MQTT_BROKER is required")
	}

	// Transaction journal
	jnl, err := journal.Open(cfg.JournalDB)
	if err != nil {
		log.Fatalf("failed to open journal: %v", err)
	}
	defer jnl.Close()
	if cfg.TxnAPIURL != "" {
		jnl.SetRemote(cfg.TxnAPIURL, nil)
	}

	// Shared status projection and AI gate
	proj := projection.New(cfg.ImageBaseURL)
	pipeline := vision.NewClient(vision.Config{
		ClassifyURL:  cfg.ClassifyURL,
		APIKey:       cfg.ClassifyKey,
		Model:        cfg.Model,
		BgRemovalURL: cfg.BgRemovalURL,
	}, nil)
	gateCfg := gate.DefaultGateConfig()
	gateCfg.GraceWait = cfg.GraceWait
	aiGate := gate.NewGate(pipeline, proj, gateCfg)

	// Broker transport
	broker, err := mqttio.Connect(mqttio.Options{
		BrokerURL: cfg.BrokerURL,
		Username:  cfg.MQTTUsername,
		Password:  cfg.MQTTPassword,
	})
	if err != nil {
		log.Fatalf("failed to connect to broker: %v", err)
	}
	defer broker.Disconnect()

	// Decision state machine
	dispatcher := dispatch.New(broker, cfg.Topics.StatusCommand, cfg.Topics.Display)
	machine := station.NewMachine(proj, dispatcher, jnl, aiGate)

	if err := broker.Subscribe(cfg.Topics.Presence, machine.HandlePresence); err != nil {
		log.Fatalf("subscribe presence: %v", err)
	}
	if err := broker.Subscribe(cfg.Topics.Weight, machine.HandleWeight); err != nil {
		log.Fatalf("subscribe weight: %v", err)
	}

	// HTTP boundary
	api := httpapi.New(proj, aiGate, dispatcher, jnl, jnl)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Handler()}
	go func() {
		log.Printf("[HTTP] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Run until interrupted
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

// #endregion main
