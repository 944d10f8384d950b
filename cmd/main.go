package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/impulsebot-io/solana-rpc-validator/config"
	"github.com/impulsebot-io/solana-rpc-validator/etcd"
	"github.com/impulsebot-io/solana-rpc-validator/gossip"
	"github.com/impulsebot-io/solana-rpc-validator/probing"
	"github.com/impulsebot-io/solana-rpc-validator/storage"
	"github.com/impulsebot-io/solana-rpc-validator/validation"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.toml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup logger
	config.SetupLogger(cfg)

	log.Info("========================================")
	log.Info("Solana RPC Host Validator")
	log.Info("========================================")
	log.Infof("Entrypoint: %s", cfg.EntrypointURL)
	log.Infof("Output File: %s", cfg.OutputFile)
	log.Infof("Probe Timeout: %d milliseconds", cfg.ProbeTimeout)
	log.Infof("Max Concurrent Tests: %d", cfg.MaxConcurrentTests)
	log.Infof("Log Level: %s", cfg.LogLevel)

	startTime := time.Now()

	// Pull the current cluster view from gossip
	fetcher := gossip.NewSnapshotFetcher(cfg)
	nodes := fetcher.Fetch()

	hosts := gossip.RPCHosts(nodes)
	log.Infof("Found %d candidate RPC hosts among %d gossip nodes", len(hosts), len(nodes))

	// Probe every candidate, batch by batch
	prober := probing.NewRPCProber(cfg)
	validator := validation.NewValidator(prober, cfg)
	validated := validator.Validate(hosts)

	if len(validated) == 0 {
		// Never overwrite a possibly valid earlier result with an empty list.
		log.Warn("No validated hosts found, leaving previous output untouched")
		return
	}

	fileManager := storage.NewFileManager(cfg.OutputFile)
	if err := fileManager.SaveValidatedHosts(validated); err != nil {
		log.Fatalf("Failed to save validated hosts: %v", err)
	}

	if cfg.Etcd.Enabled {
		publishHosts(cfg, validated)
	}

	log.Infof("Validation run completed in %s: %d/%d hosts alive",
		time.Since(startTime).Round(time.Millisecond), len(validated), len(hosts))
}

// publishHosts pushes the validated list to etcd. The output file is the
// source of truth and has already been written, so publish failures are
// logged but never change the exit code.
func publishHosts(cfg *config.Config, validated []string) {
	publisher, err := etcd.NewHostPublisher(cfg)
	if err != nil {
		log.Errorf("Failed to create etcd publisher: %v", err)
		return
	}
	defer publisher.Close()

	if err := publisher.PublishHosts(context.Background(), validated); err != nil {
		log.Errorf("Failed to publish hosts to etcd: %v", err)
	}
}
