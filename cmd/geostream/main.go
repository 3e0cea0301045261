package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/beetlebugorg/geostream/internal/config"
	"github.com/beetlebugorg/geostream/internal/logger"
	"github.com/beetlebugorg/geostream/pkg/geostream"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file; its datasets are decoded before FILE arguments"`
	BBox       string `short:"b" long:"bbox"        description:"Only features intersecting minx,miny,maxx,maxy"`
	Location   bool   `short:"l" long:"location"    description:"Attach the byte range of each source record"`
	NDJSON     bool   `short:"n" long:"ndjson"      description:"Write one feature per line instead of a FeatureCollection"`
	Validate   bool   `short:"v" long:"validate"    description:"Fail on coordinates outside lon/lat range"`
	ChunkSize  int    `long:"chunk-size"            env:"CHUNK_SIZE"  description:"Read size in bytes (default 65536)"`
	Workers    int    `short:"w" long:"workers"     env:"WORKERS"     description:"Parallel loaders for --bbox (default: number of CPUs)"`
	SkipErrors bool   `short:"k" long:"skip-errors" description:"Skip files that fail to decode"`

	Args struct {
		Files []string `positional-arg-name:"FILE" description:"GeoJSON, Shapefile or zip://archive.zip!layer.shp"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Decode failed")
	}
}

// run decodes every input and writes the result to out. Without a bbox the
// files are streamed one after the other; with one they are loaded in
// parallel and queried through their spatial index.
func run(ctx context.Context, opts Options, out io.Writer) error {
	decode := geostream.DefaultDecodeOptions()
	workers := opts.Workers
	paths := opts.Args.Files

	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		paths = append(cfg.Paths(), paths...)
		if cfg.ChunkSize > 0 {
			decode.ChunkSize = cfg.ChunkSize
		}
		if workers == 0 {
			workers = cfg.Workers
		}
		decode.ValidateGeometry = cfg.Validate
	}

	if opts.ChunkSize > 0 {
		decode.ChunkSize = opts.ChunkSize
	}
	if opts.Validate {
		decode.ValidateGeometry = true
	}
	decode.WithLocation = opts.Location
	decode.Logger = &log.Logger

	if len(paths) == 0 {
		return errors.New("no input files")
	}

	w := bufio.NewWriter(out)
	fw := geostream.NewFeatureWriter(w, opts.NDJSON)

	var err error
	if opts.BBox == "" {
		err = streamFiles(ctx, paths, decode, opts.SkipErrors, fw)
	} else {
		var bounds geostream.Bounds
		bounds, err = geostream.ParseBounds(opts.BBox)
		if err != nil {
			return err
		}
		err = queryFiles(ctx, paths, bounds, geostream.LoadOptions{
			Decode:     decode,
			Workers:    workers,
			SkipErrors: opts.SkipErrors,
		}, fw)
	}
	if err != nil {
		return err
	}

	if err := fw.Close(); err != nil {
		return err
	}
	log.Debug().Int("features", fw.Count()).Int("files", len(paths)).Msg("Done")
	return w.Flush()
}

func streamFiles(ctx context.Context, paths []string, decode geostream.DecodeOptions, skip bool, fw *geostream.FeatureWriter) error {
	for _, path := range paths {
		err := streamFile(ctx, path, decode, skip, fw)
		if err == nil {
			continue
		}
		if !skip {
			return err
		}
		log.Warn().Err(err).Str("path", path).Msg("Skipping file")
	}
	return nil
}

// streamFile copies the features of path to fw. With buffered set the file
// is decoded completely first, so a file that fails writes nothing.
func streamFile(ctx context.Context, path string, decode geostream.DecodeOptions, buffered bool, fw *geostream.FeatureWriter) error {
	stream, err := geostream.Open(ctx, path, decode)
	if err != nil {
		return err
	}
	if buffered {
		features, err := geostream.Collect(ctx, stream)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, f := range features {
			if err := fw.Write(f); err != nil {
				return err
			}
		}
		return nil
	}
	defer stream.Close()

	for f := range stream.C() {
		if err := fw.Write(f); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func queryFiles(ctx context.Context, paths []string, bounds geostream.Bounds, opts geostream.LoadOptions, fw *geostream.FeatureWriter) error {
	set, errs := geostream.LoadFilesParallel(ctx, paths, opts)
	if set == nil {
		return errs[0]
	}

	for _, c := range set.Collections {
		features := c.FeaturesInBounds(bounds)
		log.Debug().
			Str("collection", c.Name()).
			Int("features", c.FeatureCount()).
			Int("matched", len(features)).
			Msg("Queried collection")
		for _, f := range features {
			if err := fw.Write(f); err != nil {
				return err
			}
		}
	}
	return nil
}
