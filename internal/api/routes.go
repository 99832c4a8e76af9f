package api

import (
	"alcyxob/strength-academy/internal/domain" // Needed for RoleMiddleware
	"alcyxob/strength-academy/internal/ratelimit"
	"alcyxob/strength-academy/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth       service.AuthService
	Programs   service.ProgramService
	Enrollment service.EnrollmentService
	Calendar   service.CalendarService
	Coach      service.CoachService
	CheckIns   service.CheckInService
}

// RegisterValidators adds the custom binding tags used by request DTOs.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("datekey", validateDateKey)
	}
}

func SetupRoutes(router *gin.Engine, svc Services, limiter *ratelimit.Store, logger *zap.Logger) {
	RegisterValidators()

	authHandler := NewAuthHandler(svc.Auth)
	programHandler := NewProgramHandler(svc.Programs, svc.Enrollment)
	athleteHandler := NewAthleteHandler(svc.Calendar, svc.Enrollment, svc.CheckIns)
	coachHandler := NewCoachHandler(svc.Coach, svc.Enrollment)

	router.Use(RequestLogger(logger))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// Unauthenticated requests are limited per client IP.
		authGroup := apiV1.Group("/auth")
		authGroup.Use(RateLimitMiddleware(limiter, logger))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(svc.Auth), RateLimitMiddleware(limiter, logger))
	{
		protected.GET("/me", authHandler.Me)

		// --- Programs ---
		programGroup := protected.Group("/programs")
		{
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:programId/workouts", programHandler.GetProgramWorkouts)
			programGroup.POST("", RoleMiddleware(domain.RoleCoach), programHandler.CreateProgram)
			programGroup.POST("/import", RoleMiddleware(domain.RoleCoach), programHandler.ImportProgram)
			programGroup.POST("/:programId/workouts", RoleMiddleware(domain.RoleCoach), programHandler.AddProgramWorkout)
		}

		// GET /api/v1/enrollments/{enrollmentId}/schedule - athlete or program coach
		protected.GET("/enrollments/:enrollmentId/schedule", programHandler.GetEnrollmentSchedule)

		// --- Athlete Specific Routes ---
		athleteGroup := protected.Group("/athlete")
		athleteGroup.Use(RoleMiddleware(domain.RoleAthlete))
		{
			athleteGroup.GET("/calendar", athleteHandler.GetCalendar)
			athleteGroup.GET("/calendar/month", athleteHandler.GetMonth)
			athleteGroup.GET("/calendar/week", athleteHandler.GetWeek)
			athleteGroup.GET("/calendar/current", athleteHandler.GetCurrentWorkout)

			athleteGroup.POST("/enrollments", athleteHandler.RequestEnrollment)
			athleteGroup.GET("/enrollments", athleteHandler.GetMyEnrollments)

			athleteGroup.POST("/workouts/:workoutId/checkins", athleteHandler.SubmitCheckIn)
			athleteGroup.GET("/workouts/:workoutId/checkins/current", athleteHandler.GetCurrentCheckIn)
			athleteGroup.PUT("/checkins/:checkInId", athleteHandler.UpdateCheckIn)

			// Media: request URL, PUT to S3, then confirm.
			athleteGroup.POST("/checkins/:checkInId/media/upload-url", athleteHandler.RequestUploadURL)
			athleteGroup.POST("/checkins/:checkInId/media", athleteHandler.ConfirmUpload)
			athleteGroup.GET("/checkins/:checkInId/media/:mediaId", athleteHandler.GetMediaURL)
		}

		// --- Coach Specific Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/athletes", coachHandler.AddAthleteByEmail)
			coachGroup.GET("/athletes", coachHandler.GetManagedAthletes)
			coachGroup.GET("/athletes/:athleteId/calendar", coachHandler.GetAthleteCalendar)
			coachGroup.POST("/athletes/:athleteId/workouts", coachHandler.CreatePersonalWorkout)
			coachGroup.PUT("/athletes/:athleteId/workouts/:workoutId/date", coachHandler.AssignWorkoutDate)
			coachGroup.PUT("/workouts/:workoutId", coachHandler.UpdateWorkout)

			coachGroup.GET("/enrollments", coachHandler.GetEnrollments)
			coachGroup.POST("/enrollments/:enrollmentId/approve", coachHandler.ApproveEnrollment)
			coachGroup.POST("/enrollments/:enrollmentId/cancel", coachHandler.CancelEnrollment)
			coachGroup.POST("/enrollments/:enrollmentId/complete", coachHandler.CompleteEnrollment)

			coachGroup.POST("/checkins/:checkInId/review", coachHandler.ReviewCheckIn)
			coachGroup.GET("/checkins/:checkInId/media/:mediaId", coachHandler.GetCheckInMediaURL)
		}
	}
}
