package main

import (
	"alcyxob/strength-academy/internal/api"
	"alcyxob/strength-academy/internal/config"
	"alcyxob/strength-academy/internal/jobs"
	"alcyxob/strength-academy/internal/logging"
	"alcyxob/strength-academy/internal/notify"
	"alcyxob/strength-academy/internal/ratelimit"
	"alcyxob/strength-academy/internal/repository/mongo"
	"alcyxob/strength-academy/internal/schedule"
	"alcyxob/strength-academy/internal/service"
	"alcyxob/strength-academy/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Strength Academy API
// @version 1.0
// @description Coaching API: programs, enrollments, athlete calendars and check-ins.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server exiting")
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("starting strength academy server", zap.String("env", cfg.Server.Env))

	// --- Calendar timezone ---
	loc, err := cfg.Calendar.LoadLocation()
	if err != nil {
		return err
	}
	schedule.SetLocation(loc)
	logger.Info("calendar location set", zap.String("location", loc.String()))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("could not connect to MongoDB: %w", err)
	}
	defer func() {
		logger.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() { // index builds must not delay startup
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB, logger)
	}()

	// --- Initialize Storage ---
	storageCtx, cancelStorage := context.WithTimeout(context.Background(), 30*time.Second)
	fileStorage, err := storage.NewS3Storage(storageCtx, cfg.S3, logger)
	cancelStorage()
	if err != nil {
		return fmt.Errorf("failed to initialize S3 storage: %w", err)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	enrollmentRepo := mongo.NewMongoEnrollmentRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	checkInRepo := mongo.NewMongoCheckInRepository(appDB)
	mediaRepo := mongo.NewMongoMediaRepository(appDB)

	// --- Initialize Services ---
	notifier := notify.New(cfg.Notify.ResendAPIKey, cfg.Notify.From, logger)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, logger)
	programService := service.NewProgramService(programRepo, workoutRepo, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, programRepo, userRepo, notifier, logger)
	calendarService := service.NewCalendarService(enrollmentRepo, programRepo, workoutRepo, checkInRepo, logger)
	checkInService := service.NewCheckInService(checkInRepo, workoutRepo, enrollmentRepo, mediaRepo, fileStorage, logger)
	coachService := service.NewCoachService(service.CoachDeps{
		UserRepo:       userRepo,
		ProgramRepo:    programRepo,
		EnrollmentRepo: enrollmentRepo,
		WorkoutRepo:    workoutRepo,
		CheckInRepo:    checkInRepo,
		MediaRepo:      mediaRepo,
		Calendar:       calendarService,
		FileStorage:    fileStorage,
		Notifier:       notifier,
		Logger:         logger,
	})

	limiter := ratelimit.NewStore(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)

	// --- Background Jobs ---
	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.Register("enrollment-sweep", cfg.Jobs.EnrollmentSweep, jobs.EnrollmentSweep(enrollmentService, logger, time.Now)); err != nil {
		return err
	}
	if err := scheduler.Register("ratelimit-sweep", cfg.Jobs.RateLimitSweep, jobs.RateLimitSweep(limiter, logger, time.Now)); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// --- Initialize Gin Engine ---
	if cfg.Server.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Services{
		Auth:       authService,
		Programs:   programService,
		Enrollment: enrollmentService,
		Calendar:   calendarService,
		Coach:      coachService,
		CheckIns:   checkInService,
	}, limiter, logger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
