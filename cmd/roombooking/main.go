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
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/config"
	httptransport "github.com/example/roombooking/internal/http"
	"github.com/example/roombooking/internal/persistence"
	"github.com/example/roombooking/internal/persistence/sqlite"
	"github.com/example/roombooking/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("ROOMBOOKING_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := closeStorage(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if cfg.SeedPath != "" {
		if err := applySeed(ctx, cfg.SeedPath, repos, logger); err != nil {
			logger.Error("failed to apply seed data", "error", err, "path", cfg.SeedPath)
			os.Exit(1)
		}
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	mirror := store.New(idGenerator)
	bookingService := application.NewBookingServiceWithLogger(repos.Bookings, repos.Rooms, mirror, idGenerator, now, logger)
	if err := bookingService.Hydrate(ctx); err != nil {
		logger.Error("failed to hydrate booking mirror", "error", err)
		os.Exit(1)
	}
	roomService := application.NewRoomServiceWithLogger(repos.Rooms, logger)
	profileService := application.NewProfileServiceWithLogger(repos.Profiles, now, logger)
	authService := application.NewAuthServiceWithLogger(repos.Users, repos.Sessions, application.VerifyPassword, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SessionCleanupSchedule, func() {
		if err := authService.DeleteExpiredSessions(context.Background()); err != nil {
			logger.Error("failed to prune expired sessions", "error", err)
		}
	}); err != nil {
		logger.Error("invalid session cleanup schedule", "error", err, "schedule", cfg.SessionCleanupSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Rooms:          httptransport.NewRoomHandler(roomService, bookingService, logger),
		Bookings:       httptransport.NewBookingHandler(bookingService, logger),
		Profile:        httptransport.NewProfileHandler(profileService, logger),
		RequireSession: httptransport.RequireSession(authService, logger),
		Middleware:     []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
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

	logger.Info("room booking API listening", "addr", server.Addr, "database", cfg.DatabasePath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// repositories bundles the five persistence interfaces the services consume.
type repositories struct {
	Rooms    persistence.RoomRepository
	Bookings persistence.BookingRepository
	Profiles persistence.ProfileRepository
	Users    persistence.UserRepository
	Sessions persistence.SessionRepository
}

// openStorage selects the backing store. The configured path "memory" keeps
// everything in process, anything else opens a SQLite file and migrates it.
func openStorage(ctx context.Context, cfg config.Config) (repositories, func() error, error) {
	if cfg.DatabasePath == "memory" {
		backing := store.New(uuid.NewString)
		repos := repositories{
			Rooms:    backing,
			Bookings: backing,
			Profiles: backing,
			Users:    backing,
			Sessions: backing,
		}
		return repos, func() error { return nil }, nil
	}

	pool, err := sqlite.Open(sqlite.DefaultConfig(cfg.DatabasePath))
	if err != nil {
		return repositories{}, nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return repositories{}, nil, err
	}
	repos := repositories{
		Rooms:    sqlite.NewRoomRepository(pool),
		Bookings: sqlite.NewBookingRepository(pool),
		Profiles: sqlite.NewProfileRepository(pool),
		Users:    sqlite.NewUserRepository(pool),
		Sessions: sqlite.NewSessionRepository(pool),
	}
	return repos, pool.Close, nil
}

// seedFile is the on-disk format for initial rooms and accounts.
type seedFile struct {
	Rooms []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Capacity    int    `yaml:"capacity"`
		Location    string `yaml:"location"`
		Description string `yaml:"description"`
	} `yaml:"rooms"`
	Users []struct {
		ID       string `yaml:"id"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"users"`
}

func loadSeedFile(path string) (seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	return seed, nil
}

// applySeed inserts the rooms and accounts from the seed file. Records that
// already exist are left untouched so the seed can be applied on every start.
func applySeed(ctx context.Context, path string, repos repositories, logger *slog.Logger) error {
	seed, err := loadSeedFile(path)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	created := 0
	for _, entry := range seed.Rooms {
		room := persistence.Room{
			ID:        entry.ID,
			Name:      entry.Name,
			Capacity:  entry.Capacity,
			Location:  entry.Location,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if entry.Description != "" {
			description := entry.Description
			room.Description = &description
		}
		if err := repos.Rooms.CreateRoom(ctx, room); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seed room %q: %w", entry.ID, err)
		}
		created++
	}

	for _, entry := range seed.Users {
		hash, err := application.HashPassword(entry.Password, application.DefaultArgon2Params)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", entry.ID, err)
		}
		user := persistence.User{
			ID:           entry.ID,
			Email:        entry.Email,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repos.Users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("seed user %q: %w", entry.ID, err)
		}
		created++
	}

	logger.Info("seed data applied", "path", path, "created", created)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
