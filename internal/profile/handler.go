package profile

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/apierr"
	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/validation"
	"github.com/2beens/fittrack/pkg"
)

type Handler struct {
	service   *Service
	errWriter apierr.Writer
	metrics   *metrics.Manager
}

func NewHandler(service *Service, errWriter apierr.Writer, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:   service,
		errWriter: errWriter,
		metrics:   metricsManager,
	}
}

// owner returns the caller id if it matches the {userId} path segment.
// Profiles are only visible to their owner.
func (h *Handler) owner(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apierr.ErrUnauthorized
	}
	if pathUserID := mux.Vars(r)["userId"]; pathUserID != userID {
		log.Warnf("user [%s] tried to access profile of [%s]", userID, pathUserID)
		return "", apierr.ErrForbidden
	}
	return userID, nil
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	userID, err := h.owner(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.service.Get(ctx, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.replace")
	defer span.End()

	userID, err := h.owner(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var form ProfileForm
	if err := validation.DecodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.service.Replace(ctx, userID, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.update.preferences")
	defer span.End()

	userID, err := h.owner(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var form PreferencesForm
	if err := validation.DecodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.service.UpdatePreferences(ctx, userID, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpdateStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.update.stats")
	defer span.End()

	userID, err := h.owner(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var form StatsForm
	if err := validation.DecodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.service.UpdateStats(ctx, userID, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *apierr.ValidationError
	if errors.As(err, &validationErr) {
		h.metrics.CounterValidationFailures.WithLabelValues(Resource).Inc()
	}
	h.errWriter.Write(w, r, err)
}
