package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"kiosk/internal/audit"
	auditmemory "kiosk/internal/audit/store/memory"
	auditpostgres "kiosk/internal/audit/store/postgres"
	auditsqlite "kiosk/internal/audit/store/sqlite"
	"kiosk/internal/capture"
	capturemetrics "kiosk/internal/capture/metrics"
	"kiosk/internal/detector"
	detectormetrics "kiosk/internal/detector/metrics"
	"kiosk/internal/detector/remote"
	"kiosk/internal/enrolment"
	"kiosk/internal/notify"
	"kiosk/internal/platform/config"
	"kiosk/internal/platform/httpserver"
	"kiosk/internal/platform/lock"
	"kiosk/internal/platform/logger"
	"kiosk/internal/platform/metrics"
	"kiosk/internal/platform/redis"
	"kiosk/internal/submission"
	submissionmetrics "kiosk/internal/submission/metrics"
	httptransport "kiosk/internal/transport/http"
)

const tracerName = "kiosk"

// main wires the kiosk: configuration, audit trail, face detection, the
// check-in controller and its HTTP API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("kiosk stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, closeStore, err := buildAuditStore(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeStore()

	auditor := audit.NewPublisher(store,
		audit.WithAsyncBuffer(cfg.Audit.Buffer),
		audit.WithLogger(log),
	)
	defer auditor.Close()

	locker, closeLocker, err := buildLocker(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	tracer := otel.Tracer(tracerName)

	adapter := detector.NewAdapter(
		remote.NewLoader(cfg.Detector.InferenceURL, cfg.Detector.Timeout),
		detector.WithLogger(log),
		detector.WithMetrics(detectormetrics.New()),
		detector.WithTracer(tracer),
	)
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Warn("detector close failed", "error", err)
		}
	}()

	camera := capture.NewPushSource()
	fps := cfg.Capture.FPS
	manager := capture.NewManager(camera, adapter,
		capture.WithLogger(log),
		capture.WithMetrics(capturemetrics.New()),
		capture.WithMaxDetectionRetries(cfg.Capture.MaxDetectionRetries),
		capture.WithPacer(func() capture.Pacer { return capture.NewTickerPacer(fps) }),
	)

	feed := notify.NewFeed(64)
	logSink := notify.NewLogSink(log)

	var transportOpts []submission.TransportOption
	if cfg.Submission.TokenSecret != "" {
		signer := submission.NewTokenSigner(cfg.Submission.TokenSecret, cfg.Submission.TokenIssuer, cfg.Submission.TokenTTL)
		transportOpts = append(transportOpts, submission.WithTokenSigner(signer))
	}

	controller, err := enrolment.New(enrolment.Deps{
		Capture:   manager,
		Transport: submission.NewHTTPTransport(cfg.Submission.Endpoint, cfg.Submission.Timeout, transportOpts...),
		Sink:      notify.Tee{feed, logSink},
		Navigator: notify.TeeNavigator{feed, logSink},
		Auditor:   auditor,
	},
		enrolment.WithLogger(log),
		enrolment.WithKioskID(cfg.KioskID),
		enrolment.WithSubmissionOptions(
			submission.WithMetrics(submissionmetrics.New()),
			submission.WithTracer(tracer),
			submission.WithLocker(locker, cfg.Submission.LockTTL),
			submission.WithNavigationDelay(cfg.Submission.NavigationDelay),
		),
	)
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}
	defer controller.Close()

	handler := httptransport.New(controller, camera, feed, log,
		httptransport.WithPurposes(cfg.Purposes),
		httptransport.WithVisits(auditor),
		httptransport.WithHealthCheck("detector", func(context.Context) error {
			if !adapter.Ready() {
				return errors.New("face landmarker not loaded")
			}
			return nil
		}),
	)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler, log, metrics.New()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		src := modelSource(cfg.Detector)
		if err := adapter.Initialize(gctx, src); err != nil {
			// Keep serving: the form and signature still work,
			// and capture reports detection failures.
			log.Error("face landmarker failed to load", "model", src.ModelURL, "error", err)
			return nil
		}
		log.Info("face landmarker ready", "model", src.ModelURL)
		return nil
	})

	g.Go(func() error {
		log.Info("starting kiosk", "addr", cfg.Server.Addr, "kiosk_id", cfg.KioskID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func buildAuditStore(ctx context.Context, cfg config.Audit, log *slog.Logger) (audit.Store, func(), error) {
	switch cfg.Store {
	case "sqlite":
		db, err := auditsqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite audit store: %w", err)
		}
		log.Info("audit store ready", "store", "sqlite", "path", cfg.SQLitePath)
		return auditsqlite.New(db), closeDB(db, log), nil
	case "postgres":
		db, err := auditpostgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres audit store: %w", err)
		}
		store := auditpostgres.New(db)
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(schemaCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("prepare postgres audit schema: %w", err)
		}
		log.Info("audit store ready", "store", "postgres")
		return store, closeDB(db, log), nil
	default:
		log.Info("audit store ready", "store", "memory")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("audit store close failed", "error", err)
		}
	}
}

// buildLocker shares submit locks across kiosks through Redis when it is
// configured, and keeps them in process otherwise.
func buildLocker(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (lock.Locker, func(), error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		return lock.NewMemory(), func() {}, nil
	}
	log.Info("submit lock backed by redis")
	return lock.NewRedis(client.Client), func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}, nil
}

func modelSource(cfg config.Detector) detector.ModelSource {
	src := detector.DefaultModelSource()
	if cfg.ModelURL != "" {
		src.ModelURL = cfg.ModelURL
	}
	if cfg.RuntimeURL != "" {
		src.RuntimeURL = cfg.RuntimeURL
	}
	if cfg.Delegate != "" {
		src.Delegate = cfg.Delegate
	}
	if cfg.NumFaces > 0 {
		src.NumFaces = cfg.NumFaces
	}
	return src
}
