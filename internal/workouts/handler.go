package workouts

import (
	"errors"
	"net/http"
	"time"

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
	service     *Service
	errWriter   apierr.Writer
	metrics     *metrics.Manager
	listLatency time.Duration
}

func NewHandler(
	service *Service,
	errWriter apierr.Writer,
	metricsManager *metrics.Manager,
	listLatency time.Duration,
) *Handler {
	return &Handler{
		service:     service,
		errWriter:   errWriter,
		metrics:     metricsManager,
		listLatency: listLatency,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	if err := pkg.SleepCtx(ctx, h.listLatency); err != nil {
		log.Debugf("list workouts of [%s] cancelled: %s", userID, err)
		return
	}

	workouts, err := h.service.List(ctx, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, workouts)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	var form WorkoutForm
	if err := validation.DecodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	workout, err := h.service.Create(ctx, userID, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Debugf("workout [%s] logged for user [%s]", workout.ID, userID)
	pkg.WriteJSON(w, http.StatusCreated, workout)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	workout, err := h.service.Get(ctx, mux.Vars(r)["id"], userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, workout)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	var form UpdateWorkoutForm
	if err := validation.DecodeJSON(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	workout, err := h.service.Update(ctx, mux.Vars(r)["id"], userID, form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, workout)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		h.writeError(w, r, apierr.ErrUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.service.Delete(ctx, id, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Debugf("workout [%s] of user [%s] deleted", id, userID)
	pkg.WriteNoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *apierr.ValidationError
	if errors.As(err, &validationErr) {
		h.metrics.CounterValidationFailures.WithLabelValues(Resource).Inc()
	}
	h.errWriter.Write(w, r, err)
}
