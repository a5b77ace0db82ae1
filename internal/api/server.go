package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"campusbook/internal/config"
	"campusbook/internal/domain"
	"campusbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Server — HTTP-поверхность ядра бронирования. Аутентификацию конечных
// пользователей держит внешний шлюз; сюда приходят уже проверенные
// идентификаторы, ключ API подтверждает сам шлюз.
type Server struct {
	cfg      config.APIConfig
	bookings *service.BookingService
	changes  *service.CampusChangeService
	issues   *service.IssueService
	ref      domain.ReferenceStore
	exports  *Exporter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.APIConfig,
	bookings *service.BookingService,
	changes *service.CampusChangeService,
	issues *service.IssueService,
	ref domain.ReferenceStore,
	exports *Exporter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		bookings: bookings,
		changes:  changes,
		issues:   issues,
		ref:      ref,
		exports:  exports,
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Router собирает все маршруты; отдельно от Start ради httptest.
func (s *Server) Router() http.Handler {
	auth := NewAuth(s.cfg)

	r := chi.NewRouter()
	r.Use(loggingMiddleware(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Wrap)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", s.handleCreateBooking)
			r.Get("/{id}", s.handleGetBooking)
			r.Get("/code/{code}", s.handleGetBookingByCode)
			r.Post("/{id}/cancel", s.handleCancelBooking)
			r.Post("/{id}/lecturer-approve", s.handleLecturerApprove)
			r.Post("/{id}/lecturer-reject", s.handleLecturerReject)
			r.Post("/{id}/approve", s.handleAdminApprove)
			r.Post("/{id}/reject", s.handleAdminReject)
		})

		r.Get("/availability", s.handleAvailability)
		r.Get("/facilities", s.handleListFacilities)
		r.Get("/facilities/{id}/bookings", s.handleFacilityBookings)
		r.Get("/campuses", s.handleListCampuses)
		r.Get("/users/{id}/bookings", s.handleUserBookings)

		r.Route("/campus-changes", func(r chi.Router) {
			r.Post("/", s.handleSubmitChangeRequest)
			r.Get("/pending", s.handleListPendingChangeRequests)
			r.Get("/{id}", s.handleGetChangeRequest)
			r.Post("/{id}/review", s.handleReviewChangeRequest)
		})

		r.Route("/issues", func(r chi.Router) {
			r.Post("/", s.handleReportIssue)
			r.Get("/", s.handleListIssues)
			r.Get("/{id}", s.handleGetIssue)
			r.Post("/{id}/handle", s.handleHandleIssue)
			r.Post("/{id}/resolve", s.handleResolveIssue)
		})

		r.Get("/exports/bookings.xlsx", s.handleExportBookings)
	})

	return r
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
