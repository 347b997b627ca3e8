package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/accounts"
	"healthcare-booking-server/internal/booking"
	"healthcare-booking-server/internal/calendar"
	"healthcare-booking-server/internal/handlers"
	"healthcare-booking-server/internal/metrics"
	"healthcare-booking-server/internal/middleware"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/reviews"
)

// Deps are the services the routes are served from.
type Deps struct {
	Accounts      *accounts.Service
	Bookings      *booking.Service
	Reviews       *reviews.Service
	Policy        *access.Policy
	ICS           *calendar.AppleSyncer
	Metrics       *metrics.Metrics // nil disables /metrics
	RefreshTTL    time.Duration
	SecureCookies bool
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Accounts, d.RefreshTTL, d.SecureCookies)
	appointmentHandler := handlers.NewAppointmentHandler(d.Bookings, d.ICS)
	reviewHandler := handlers.NewReviewHandler(d.Reviews)
	prescriptionHandler := handlers.NewPrescriptionHandler(d.Bookings)
	doctorHandler := handlers.NewDoctorHandler(d.Accounts)
	userHandler := handlers.NewUserHandler(d.Accounts)
	profileHandler := handlers.NewProfileHandler(d.Accounts)
	favoriteHandler := handlers.NewFavoriteHandler(d.Accounts)
	notificationHandler := handlers.NewNotificationHandler(d.Accounts)

	protect := middleware.AuthMiddleware(d.Accounts, d.Policy)
	admin := middleware.RoleAuthMiddleware(models.RoleAdmin)
	patient := middleware.RoleAuthMiddleware(models.RolePatient)
	doctor := middleware.RoleAuthMiddleware(models.RoleDoctor)
	patientOrAdmin := middleware.RoleAuthMiddleware(models.RolePatient, models.RoleAdmin)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
		authRoutes.POST("/logout", protect, authHandler.Logout)
		authRoutes.POST("/create-admin", protect, admin, authHandler.CreateAdmin)
		authRoutes.GET("/pending-doctors", protect, admin, authHandler.PendingDoctors)
		authRoutes.POST("/approve-doctor/:id", protect, admin, authHandler.ApproveDoctor)
		authRoutes.POST("/reject-doctor/:id", protect, admin, authHandler.RejectDoctor)
	}

	// Ownership checks for bookings run in the service.
	bookingRoutes := api.Group("/bookings", protect)
	{
		bookingRoutes.POST("", appointmentHandler.CreateAppointment)
		bookingRoutes.GET("", admin, appointmentHandler.GetAppointments)
		bookingRoutes.GET("/my-appointments", patient, appointmentHandler.GetMyAppointments)
		bookingRoutes.GET("/doctor-appointments", doctor, appointmentHandler.GetDoctorAppointments)
		bookingRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
		bookingRoutes.GET("/:id/calendar.ics", appointmentHandler.CalendarFile)
		bookingRoutes.PUT("/:id", admin, appointmentHandler.UpdateAppointment)
		bookingRoutes.PUT("/:id/confirm", appointmentHandler.ConfirmAppointment)
		bookingRoutes.PUT("/:id/complete", appointmentHandler.CompleteAppointment)
		bookingRoutes.PUT("/:id/cancel", appointmentHandler.CancelAppointment)
		bookingRoutes.PUT("/:id/reschedule", appointmentHandler.RescheduleAppointment)
		bookingRoutes.PUT("/:id/consultation-notes", doctor, appointmentHandler.AddConsultationNotes)
	}

	reviewRoutes := api.Group("/reviews")
	{
		reviewRoutes.GET("/doctor/:doctorId", reviewHandler.GetDoctorReviews)
		reviewRoutes.POST("", protect, patient, reviewHandler.CreateReview)
		reviewRoutes.PUT("/:id", protect, patientOrAdmin, reviewHandler.UpdateReview)
		reviewRoutes.DELETE("/:id", protect, patientOrAdmin, reviewHandler.DeleteReview)
		reviewRoutes.PUT("/:id/moderate", protect, admin, reviewHandler.ModerateReview)
	}

	prescriptionRoutes := api.Group("/prescriptions", protect)
	{
		prescriptionRoutes.POST("", doctor, prescriptionHandler.CreatePrescription)
		prescriptionRoutes.GET("", prescriptionHandler.GetPrescriptions)
		prescriptionRoutes.GET("/:id", prescriptionHandler.GetPrescription)
		prescriptionRoutes.PUT("/:id", doctor, prescriptionHandler.UpdatePrescription)
	}

	doctorRoutes := api.Group("/doctors")
	{
		doctorRoutes.GET("", doctorHandler.GetDoctors)
		doctorRoutes.GET("/:id", doctorHandler.GetDoctor)
		doctorRoutes.POST("", protect, admin, doctorHandler.CreateDoctor)
		doctorRoutes.PUT("/:id", protect, admin, doctorHandler.UpdateDoctor)
		doctorRoutes.DELETE("/:id", protect, admin, doctorHandler.DeleteDoctor)
	}

	userRoutes := api.Group("/users", protect, admin)
	{
		userRoutes.GET("/stats", userHandler.GetStats)
		userRoutes.GET("", userHandler.GetUsers)
		userRoutes.GET("/:id", userHandler.GetUserByID)
		userRoutes.PUT("/:id/status", userHandler.UpdateUserStatus)
		userRoutes.PUT("/:id", userHandler.UpdateUser)
		userRoutes.DELETE("/:id", userHandler.DeleteUser)
	}

	profileRoutes := api.Group("/profile")
	{
		profileRoutes.GET("/doctor/:id", profileHandler.GetDoctorProfile)
		profileRoutes.GET("", protect, profileHandler.GetProfile)
		profileRoutes.PUT("", protect, profileHandler.UpdateProfile)
		profileRoutes.POST("/picture", protect, profileHandler.UploadProfilePicture)
	}

	favoriteRoutes := api.Group("/favorites", protect, patient)
	{
		favoriteRoutes.POST("", favoriteHandler.AddFavorite)
		favoriteRoutes.GET("", favoriteHandler.GetFavorites)
		favoriteRoutes.GET("/check/:doctorId", favoriteHandler.CheckFavorite)
		favoriteRoutes.DELETE("/:doctorId", favoriteHandler.RemoveFavorite)
	}

	notificationRoutes := api.Group("/notifications", protect)
	{
		notificationRoutes.GET("", notificationHandler.GetNotifications)
		notificationRoutes.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notificationRoutes.PUT("/:id/read", notificationHandler.MarkAsRead)
		notificationRoutes.DELETE("/:id", notificationHandler.DeleteNotification)
	}

	api.GET("/activity-logs", protect, admin, userHandler.GetActivityLogs)

	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
