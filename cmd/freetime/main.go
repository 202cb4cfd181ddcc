package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/hoyle1974/freetime"
	"github.com/hoyle1974/freetime/calendar"
	"github.com/hoyle1974/freetime/config"
	"github.com/hoyle1974/freetime/events"
	"github.com/hoyle1974/freetime/misc"
	"github.com/hoyle1974/freetime/storage"
	"github.com/hoyle1974/freetime/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath   string
	day          string
	days         []string
	required     []string
	optional     []string
	duration     int
	importPath   string
	revision     int
	listDays     bool
	compact      bool
	printMetrics bool
}

func parseFlags(args []string) (options, config.Config, error) {
	var opts options
	fs := pflag.NewFlagSet("freetime", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	fs.StringVarP(&opts.day, "day", "d", string(calendar.DayOf(time.Now())), "day to query (YYYY-MM-DD)")
	fs.StringSliceVar(&opts.days, "days", nil, "several days to query at once")
	fs.StringSliceVarP(&opts.required, "required", "r", nil, "attendees that must attend")
	fs.StringSliceVarP(&opts.optional, "optional", "o", nil, "attendees that should attend if possible")
	fs.IntVar(&opts.duration, "duration", 30, "meeting length in minutes")
	fs.StringVar(&opts.importPath, "import", "", "YAML day file to save before querying")
	fs.IntVar(&opts.revision, "revision", -1, "query an older revision of the day")
	fs.BoolVar(&opts.listDays, "list-days", false, "print the stored days and exit")
	fs.BoolVar(&opts.compact, "compact", false, "fold the day's journal into a new revision")
	fs.BoolVar(&opts.printMetrics, "print-metrics", false, "dump metrics to stderr when done")
	config.AddFlags(fs)

	if err := fs.Parse(args); err != nil {
		return opts, config.Config{}, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return opts, cfg, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return opts, cfg, err
	}
	return opts, cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger, err := telemetry.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(registry, "freetime")

	system, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	store := events.NewStore(system, logger)

	if opts.listDays {
		days, err := store.Days(ctx)
		if err != nil {
			return err
		}
		return printJSON(stdout, days)
	}

	day, err := calendar.ParseDay(opts.day)
	if err != nil {
		return err
	}

	if opts.importPath != "" {
		if day, err = importDay(ctx, store, opts.importPath, logger); err != nil {
			return err
		}
	}

	if opts.compact {
		rev, err := store.Compact(ctx, day)
		if err != nil {
			return err
		}
		logger.Info("compacted", "day", day, "revision", rev)
	}

	request, err := calendar.NewMeetingRequest(opts.duration, opts.required, opts.optional)
	if err != nil {
		return err
	}

	finder := freetime.NewWithTelemetry(logger, metrics)

	if opts.revision >= 0 {
		evs, err := store.LoadRevision(ctx, day, opts.revision)
		if err != nil {
			return err
		}
		err = printJSON(stdout, finder.Query(evs, request))
		dumpMetrics(stderr, registry, opts.printMetrics)
		return err
	}

	planner := freetime.NewPlanner(store, finder, freetime.PlannerOptions{
		CacheTTL:             cfg.Cache.TTL,
		CacheCleanupInterval: cfg.Cache.CleanupInterval,
		Workers:              cfg.Planner.Workers,
		Logger:               logger,
		Metrics:              metrics,
	})
	defer planner.Close()

	if len(opts.days) > 0 {
		days := make([]calendar.Day, 0, len(opts.days))
		for _, s := range opts.days {
			d, err := calendar.ParseDay(s)
			if err != nil {
				return err
			}
			days = append(days, d)
		}
		results, err := planner.QueryDays(ctx, days, request)
		if err != nil {
			return err
		}
		err = printJSON(stdout, byDay(results))
		dumpMetrics(stderr, registry, opts.printMetrics)
		return err
	}

	slots, err := planner.Query(ctx, day, request)
	if err != nil {
		return err
	}
	err = printJSON(stdout, slots)
	dumpMetrics(stderr, registry, opts.printMetrics)
	return err
}

type dayResult struct {
	Day   calendar.Day         `json:"day"`
	Slots []calendar.TimeRange `json:"slots"`
}

// byDay lists the results in day order.
func byDay(results map[calendar.Day][]calendar.TimeRange) []dayResult {
	out := make([]dayResult, 0, len(results))
	for d, slots := range misc.Range(results) {
		out = append(out, dayResult{Day: d, Slots: slots})
	}
	return out
}

// importDay saves the day file at path as a new revision and returns the day it describes.
func importDay(ctx context.Context, store events.Store, path string, logger telemetry.Logger) (calendar.Day, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "can not open %s", path)
	}
	defer f.Close()

	day, evs, err := events.DecodeDayFile(f)
	if err != nil {
		return "", errors.Wrapf(err, "can not import %s", path)
	}
	rev, err := store.Save(ctx, day, evs)
	if err != nil {
		return "", err
	}
	logger.Info("imported", "day", day, "events", len(evs), "revision", rev)
	return day, nil
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (storage.System, error) {
	switch cfg.Source {
	case config.SourceMemory:
		return storage.NewMemoryStorage(), nil
	case config.SourceDisk:
		return storage.NewDiskStorage(cfg.URI), nil
	case config.SourceS3:
		loadOpts := []func(*s3config.LoadOptions) error{s3config.WithRegion(cfg.Region)}
		if key := os.Getenv("FREETIME_S3_ACCESS_KEY"); key != "" {
			loadOpts = append(loadOpts, s3config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(key, os.Getenv("FREETIME_S3_SECRET_KEY"), "")))
		}
		awsCfg, err := s3config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "can not load aws config")
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
		return storage.NewS3Storage(client, cfg.Bucket), nil
	}
	return nil, errors.Wrapf(config.ErrInvalidConfig, "unsupported storage source %q", cfg.Source)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dumpMetrics(w io.Writer, registry *prometheus.Registry, enabled bool) {
	if !enabled {
		return
	}
	families, err := registry.Gather()
	if err != nil {
		fmt.Fprintf(w, "can not gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s %v\n", mf.GetName(), m.GetGauge().GetValue())
		}
	}
}
