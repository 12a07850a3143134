package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mapier/poimport/destination"
	"github.com/mapier/poimport/export"
	"github.com/mapier/poimport/overture"
	"github.com/mapier/poimport/pipeline"
	"github.com/mapier/poimport/server"
	"github.com/mapier/poimport/settings"
	"github.com/mapier/poimport/snapshot"
)

func main() {
	if err := settings.InitializeConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import":
		runImport(args)
	case "count":
		runCount(args)
	case "export":
		runExport(args)
	case "snapshot":
		runSnapshot(args)
	case "serve":
		runServe(args)
	default:
		usage()
		log.Fatalf("Unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: poimport <import|count|export|snapshot|serve> [flags]")
}

// filterFlags registers the flags shared by every command that queries the
// dataset and returns a builder applying them.
func filterFlags(fs *flag.FlagSet) func() overture.Filter {
	bbox := fs.String("bbox", "", "bounding box: min_lon,max_lon,min_lat,max_lat (default: US mainland)")
	category := fs.String("category", "", "filter by primary category")
	state := fs.String("state", "", "filter by state")

	return func() overture.Filter {
		filter := overture.DefaultFilter()
		if *bbox != "" {
			var err error
			filter, err = filter.ParseBBox(*bbox)
			if err != nil {
				log.Fatalf("%v", err)
			}
		}
		filter.Category = *category
		filter.Region = *state

		if err := filter.Validate(); err != nil {
			log.Fatalf("Invalid filter: %v", err)
		}
		return filter
	}
}

func openDataset(filter overture.Filter) (*overture.DB, *overture.Dataset) {
	config := settings.GetConfig()

	db, err := overture.Open(config.Overture.S3Region)
	if err != nil {
		log.Fatalf("Failed to open DuckDB: %v", err)
	}

	return db, overture.NewDataset(db, config.Overture.DatasetPath(), filter)
}

func openSink(ctx context.Context, backend string) destination.Sink {
	config := settings.GetConfig()

	switch backend {
	case "postgres":
		sink, err := destination.NewPostgresSink(ctx, config.Postgres.ConnectionString())
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		log.Infof("Connected to %s:%s/%s", config.Postgres.Host, config.Postgres.Port, config.Postgres.Database)
		return sink
	case "supabase":
		sink, err := destination.NewSupabaseSink(config.Supabase.URL, config.Supabase.ServiceRoleKey)
		if err != nil {
			log.Fatalf("Failed to create Supabase client: %v", err)
		}
		return sink
	default:
		log.Fatalf("Unknown backend %q, expected supabase or postgres", backend)
		return nil
	}
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	limit := fs.Int("limit", 0, "limit number of records to import")
	offset := fs.Int("offset", 0, "skip N records (for resuming)")
	batch := fs.Int("batch", 0, "batch size (default from BATCH_SIZE)")
	dryRun := fs.Bool("dry-run", false, "count only, do not insert")
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	backend := fs.String("backend", "supabase", "destination backend: supabase or postgres")
	fs.Parse(args)

	config := settings.GetConfig()
	filter := buildFilter()

	log.Infof("Overture Maps importer, release %s", config.Overture.Release)
	log.Infof("Filters: confidence >= %g, source update_time >= %s", filter.MinConfidence, filter.MinUpdateTime)
	log.Infof("Target: %s", *backend)

	ctx := context.Background()

	db, dataset := openDataset(filter)
	defer db.Close()

	sink := openSink(ctx, *backend)
	defer sink.Close(ctx)

	batchSize := *batch
	if batchSize <= 0 {
		batchSize = config.BatchSize
	}

	p := pipeline.Pipeline{
		Source:      pipeline.NewOvertureSource(dataset),
		Sink:        sink,
		Columns:     overture.ImportColumns,
		BatchSize:   batchSize,
		Limit:       *limit,
		Offset:      *offset,
		DryRun:      *dryRun,
		AutoConfirm: *yes,
	}

	stats, err := p.Run(ctx)
	if err != nil {
		sink.Close(ctx)
		db.Close()
		log.Fatalf("Import failed: %v", err)
	}
	stats.LogSummary()
}

func runCount(args []string) {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	fs.Parse(args)

	filter := buildFilter()

	db, dataset := openDataset(filter)
	defer db.Close()

	log.Infof("Counting POIs in bbox %g..%g (lon), %g..%g (lat)",
		filter.MinLon, filter.MaxLon, filter.MinLat, filter.MaxLat)

	total, err := dataset.Count(context.Background())
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}

	log.Infof("Total high-quality POIs: %d", total)
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	limit := fs.Int("limit", 0, "limit number of POIs")
	output := fs.String("output", "", "output GeoJSON file (required)")
	fs.Parse(args)

	if *output == "" {
		log.Fatalf("--output is required")
	}

	filter := buildFilter()

	db, dataset := openDataset(filter)
	defer db.Close()

	if err := export.Run(context.Background(), dataset, *limit, *output); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
}

func runSnapshot(args []string) {
	if len(args) < 1 {
		log.Fatalf("Usage: poimport snapshot <create|load> [flags]")
	}

	ctx := context.Background()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("snapshot create", flag.ExitOnError)
		buildFilter := filterFlags(fs)
		output := fs.String("output", "", "output parquet file (required)")
		fs.Parse(args[1:])

		if *output == "" {
			log.Fatalf("--output is required")
		}

		filter := buildFilter()
		config := settings.GetConfig()

		db, _ := openDataset(filter)
		defer db.Close()

		if err := snapshot.Create(ctx, db, config.Overture.DatasetPath(), filter, *output); err != nil {
			log.Fatalf("Snapshot failed: %v", err)
		}
	case "load":
		fs := flag.NewFlagSet("snapshot load", flag.ExitOnError)
		input := fs.String("input", "", "snapshot parquet file (required)")
		batch := fs.Int("batch", 0, "batch size (default from BATCH_SIZE)")
		backend := fs.String("backend", "supabase", "destination backend: supabase or postgres")
		fs.Parse(args[1:])

		if *input == "" {
			log.Fatalf("--input is required")
		}

		sink := openSink(ctx, *backend)
		defer sink.Close(ctx)

		batchSize := *batch
		if batchSize <= 0 {
			batchSize = settings.GetConfig().BatchSize
		}

		stats, err := snapshot.Load(ctx, *input, sink, batchSize)
		if err != nil {
			sink.Close(ctx)
			log.Fatalf("Snapshot load failed: %v", err)
		}
		stats.LogSummary()
	default:
		log.Fatalf("Unknown snapshot command %q, expected create or load", args[0])
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	geojson := fs.String("geojson", "", "exported GeoJSON file to serve (required)")
	port := fs.Int("port", 0, "port to listen on (default from SERVER_PORT)")
	fs.Parse(args)

	if *geojson == "" {
		log.Fatalf("--geojson is required")
	}

	serverPort := *port
	if serverPort <= 0 {
		serverPort = settings.GetConfig().Server.Port
	}

	server.Start(serverPort, *geojson)
}
