package http

import (
	"net/http"

	"hospital-management-system/internal/delivery/http/handler"
	"hospital-management-system/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	appointmentHandler  *handler.AppointmentHandler
	slotHandler         *handler.SlotHandler
	notificationHandler *handler.NotificationHandler
	doctorHandler       *handler.DoctorHandler
	patientHandler      *handler.PatientHandler
	chatHandler         *handler.ChatHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	slotHandler *handler.SlotHandler,
	notificationHandler *handler.NotificationHandler,
	doctorHandler *handler.DoctorHandler,
	patientHandler *handler.PatientHandler,
	chatHandler *handler.ChatHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		appointmentHandler:  appointmentHandler,
		slotHandler:         slotHandler,
		notificationHandler: notificationHandler,
		doctorHandler:       doctorHandler,
		patientHandler:      patientHandler,
		chatHandler:         chatHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.Me).Methods(http.MethodGet)

	// Routes shared by all authenticated roles
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/doctors", r.doctorHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{id}", r.doctorHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/doctors/{doctorId}/slots", r.slotHandler.Available).Methods(http.MethodGet)
	protected.HandleFunc("/patients/{id}", r.patientHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/chat", r.chatHandler.Message).Methods(http.MethodPost)

	// Appointment lifecycle
	protected.HandleFunc("/appointments", r.appointmentHandler.Book).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.appointmentHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}/reschedule", r.appointmentHandler.Reschedule).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPost)

	// Doctor-side transitions
	clinical := api.PathPrefix("/appointments").Subrouter()
	clinical.Use(r.authMiddleware.Authenticate)
	clinical.Use(middleware.RequireDoctorOrAdmin)
	clinical.HandleFunc("/{id}/confirm", r.appointmentHandler.Confirm).Methods(http.MethodPost)
	clinical.HandleFunc("/{id}/complete", r.appointmentHandler.Complete).Methods(http.MethodPost)
	clinical.HandleFunc("/{id}/no-show", r.appointmentHandler.NoShow).Methods(http.MethodPost)

	// Patient-only routes
	patient := api.PathPrefix("").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Use(middleware.RequirePatient)
	patient.HandleFunc("/patients/me", r.patientHandler.UpdateMe).Methods(http.MethodPut)
	patient.HandleFunc("/notifications", r.notificationHandler.History).Methods(http.MethodGet)
	patient.HandleFunc("/notifications/settings", r.notificationHandler.GetSettings).Methods(http.MethodGet)
	patient.HandleFunc("/notifications/settings", r.notificationHandler.UpdateSettings).Methods(http.MethodPut)

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/doctors", r.authHandler.RegisterDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id}", r.doctorHandler.Deactivate).Methods(http.MethodDelete)
	admin.HandleFunc("/patients", r.patientHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/slots/generate", r.slotHandler.Generate).Methods(http.MethodPost)
	admin.HandleFunc("/slots/purge", r.slotHandler.Purge).Methods(http.MethodDelete)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.List).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
