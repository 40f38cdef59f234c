package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/event-dashboard/internal/application"
	"github.com/example/event-dashboard/internal/config"
	httptransport "github.com/example/event-dashboard/internal/http"
	"github.com/example/event-dashboard/internal/jobs"
	"github.com/example/event-dashboard/internal/notify"
	"github.com/example/event-dashboard/internal/persistence"
	"github.com/example/event-dashboard/internal/persistence/sqlite"
)

func main() {
	configPath := flag.String("config", "dashboard.yaml", "path to the configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool, logger); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	roomRepo := sqlite.NewRoomRepository(pool)
	attendeeRepo := sqlite.NewAttendeeRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)
	speakerRepo := sqlite.NewSpeakerRepository(pool)
	alertRepo := sqlite.NewAlertRepository(pool)
	checkinRepo := sqlite.NewCheckinRepository(pool)
	archiveRepo := sqlite.NewArchiveRepository(pool)
	photoRepo := sqlite.NewPhotoRepository(pool)
	staffRepo := sqlite.NewStaffRepository(pool)

	hub := notify.NewHub(now, logger)
	var redisPub *notify.RedisPublisher
	if cfg.Redis.Addr != "" {
		redisPub = notify.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err := redisPub.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, continuing without stream mirror", "error", err)
		}
		hub.AddSink(redisPub.Sink())
		defer func() {
			if cerr := redisPub.Close(); cerr != nil {
				logger.Error("failed to close redis client", "error", cerr)
			}
		}()
	}

	roomService := application.NewRoomServiceWithLogger(roomRepo, attendeeRepo, archiveRepo, hub, idGenerator, now, logger)
	sessionService := application.NewSessionServiceWithLogger(sessionRepo, roomRepo, speakerRepo, hub, idGenerator, now, logger)
	attendeeService := application.NewAttendeeServiceWithLogger(attendeeRepo, checkinRepo, hub, idGenerator, now, logger)
	checkinService := application.NewCheckinServiceWithLogger(attendeeRepo, roomRepo, checkinRepo, hub, idGenerator, now, logger)
	speakerService := application.NewSpeakerServiceWithLogger(speakerRepo, hub, idGenerator, now, logger)
	alertService := application.NewAlertServiceWithLogger(alertRepo, roomRepo, hub, idGenerator, now, logger)
	analyticsService := application.NewAnalyticsServiceWithLogger(roomRepo, attendeeRepo, sessionRepo, photoRepo, hub, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(staffRepo, staffRepo, nil, tokenGenerator, now, cfg.SessionTTL.Std(), logger)

	// Overview responses are cached; any data change invalidates them.
	hub.AddSink(func(notify.Event) { analyticsService.InvalidateOverview() })

	if err := bootstrapAdmin(ctx, authService, staffRepo, cfg, logger); err != nil {
		logger.Error("failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	runner := jobs.NewRunner(logger)
	jobSpecs := []jobs.Job{
		{Name: "session-prune", Spec: cfg.Jobs.SessionPruneSpec, Run: authService.PruneExpiredSessions},
		{Name: "occupancy-watch", Spec: cfg.Jobs.OccupancyWatchSpec, Run: jobs.NewOccupancyWatch(roomService, alertService, logger).Run},
	}
	for _, job := range jobSpecs {
		if err := runner.Register(ctx, job); err != nil {
			logger.Error("failed to register job", "job", job.Name, "error", err)
			os.Exit(1)
		}
	}
	runner.Start()
	defer runner.Stop()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:              httptransport.NewAuthHandler(authService, logger),
		Rooms:             httptransport.NewRoomHandler(roomService, sessionService, logger),
		Sessions:          httptransport.NewSessionHandler(sessionService, logger),
		Attendees:         httptransport.NewAttendeeHandler(attendeeService, logger),
		Checkins:          httptransport.NewCheckinHandler(checkinService, logger),
		Speakers:          httptransport.NewSpeakerHandler(speakerService, logger),
		Alerts:            httptransport.NewAlertHandler(alertService, logger),
		Analytics:         httptransport.NewAnalyticsHandler(analyticsService, logger),
		Archives:          httptransport.NewArchiveHandler(roomService, logger),
		Events:            httptransport.NewEventsHandler(hub, logger),
		SessionMiddleware: httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("dashboard API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin seeds the first admin account when the staff table is empty
// and bootstrap credentials are configured.
func bootstrapAdmin(ctx context.Context, auth *application.AuthService, staff staffLister, cfg config.Config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	existing, err := staff.ListStaffUsers(ctx)
	if err != nil {
		return fmt.Errorf("list staff users: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	system := application.Principal{UserID: "system:bootstrap", IsAdmin: true}
	user, err := auth.CreateStaffUser(ctx, system, cfg.AdminEmail, "Administrator", cfg.AdminPassword, true)
	if err != nil {
		return err
	}
	logger.Info("seeded initial admin account", "user_id", user.ID, "email", user.Email)
	return nil
}

type staffLister interface {
	ListStaffUsers(ctx context.Context) ([]persistence.StaffUser, error)
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
