package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/beetlebugorg/geostream/internal/config"
	"github.com/beetlebugorg/geostream/internal/logger"
	"github.com/beetlebugorg/geostream/internal/server"
	"github.com/beetlebugorg/geostream/pkg/geostream"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on (overrides listen in config)"`
	CacheSize  int64  `short:"m" long:"cache-size" env:"CACHE_SIZE"     description:"Collection cache limit in bytes, 0 keeps the configured value"`
	Preload    bool   `short:"p" long:"preload"    env:"PRELOAD"        description:"Load every dataset before serving"`
}

const defaultAddr = "0.0.0.0:8080"

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	addr := cfg.Listen
	if opts.Addr != "" {
		addr = opts.Addr
	}
	if addr == "" {
		addr = defaultAddr
	}
	if opts.CacheSize > 0 {
		cfg.CacheSize = opts.CacheSize
	}

	decode := geostream.DefaultDecodeOptions()
	if cfg.ChunkSize > 0 {
		decode.ChunkSize = cfg.ChunkSize
	}
	decode.ValidateGeometry = cfg.Validate
	decode.Logger = &log.Logger

	srv := server.NewServer(cfg, decode)
	if opts.Preload {
		srv.Preload(context.Background())
	}

	httpSrv := &http.Server{
		Addr:        addr,
		Handler:     srv.Handler(),
		IdleTimeout: time.Minute,
	}

	log.Info().
		Str("addr", addr).
		Int("datasets", len(cfg.Datasets)).
		Int64("cache_size", cfg.CacheSize).
		Msg("Web server started")

	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
