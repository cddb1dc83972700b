package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"bcbevents/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// Routes under /manage require a Bearer token; role checks happen in the services.
func NewRouter(
	eventController *controllers.EventController,
	rsvpController *controllers.RSVPController,
	authController *controllers.AuthController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("POST /events/{eventID}/rsvps", rsvpController.SubmitRSVP)

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Management console
	mux.HandleFunc("POST /manage/events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("PATCH /manage/events/{eventID}", requireAuth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /manage/events/{eventID}", requireAuth(eventController.DeleteEvent))
	mux.HandleFunc("GET /manage/events/{eventID}/rsvps", requireAuth(rsvpController.ListEventRSVPs))
	mux.HandleFunc("GET /manage/rsvps", requireAuth(rsvpController.ListRecentRSVPs))
	mux.HandleFunc("PATCH /manage/rsvps/{rsvpID}/status", requireAuth(rsvpController.UpdateRSVPStatus))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
