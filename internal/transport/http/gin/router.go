// Package httpgin exposes the registration engine over HTTP.
package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/attendly/attendly/internal/domain"
	redisrepo "github.com/attendly/attendly/internal/repository/redis"
	"github.com/attendly/attendly/internal/service"
	"github.com/attendly/attendly/internal/service/allocation"
	"github.com/attendly/attendly/internal/service/events"
	"github.com/attendly/attendly/internal/service/subscribers"
)

type handlers struct {
	svcs   *service.Services
	idem   *redisrepo.IdempotencyStore
	logger *slog.Logger
}

// NewRouter assembles the HTTP surface. idem may be nil, which disables
// Idempotency-Key replay protection on registration creation.
func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{svcs: svcs, idem: idem, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	ev := r.Group("/events")
	{
		ev.POST("", h.createEvent)
		ev.GET("", h.listEvents)
		ev.GET("/:id", h.getEvent)
		ev.PUT("/:id", h.updateEvent)
		ev.DELETE("/:id", h.deleteEvent)

		ev.POST("/:id/registrations", h.register)
		ev.GET("/:id/registrations", h.listEventRegistrations)
		ev.DELETE("/:id/registrations/:subscriberID", h.unregister)
	}

	sub := r.Group("/subscribers")
	{
		sub.POST("", h.createSubscriber)
		sub.GET("/:id", h.getSubscriber)
		sub.GET("/:id/registrations", h.listSubscriberRegistrations)
	}

	return r
}

// createEvent godoc
//
//	@Summary	Create an event
//	@Tags		events
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateEventRequest	true	"event fields"
//	@Success	201		{object}	EventResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/events [post]
func (h *handlers) createEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	date, err := parseRFC3339(req.Date)
	if err != nil {
		badRequest(c, errors.New("date must be RFC 3339"))
		return
	}

	ev, err := h.svcs.Events.Create(c.Request.Context(), events.CreateParams{
		Title:            req.Title,
		Description:      req.Description,
		Date:             date,
		Location:         req.Location,
		Organizer:        req.Organizer,
		Status:           domain.EventStatus(req.Status),
		Capacity:         req.Capacity,
		WaitlistEnabled:  req.WaitlistEnabled,
		WaitlistCapacity: req.WaitlistCapacity,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, toEventResponse(ev))
}

// getEvent godoc
//
//	@Summary	Get an event
//	@Tags		events
//	@Produce	json
//	@Param		id	path		string	true	"event id"
//	@Success	200	{object}	EventResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/events/{id} [get]
func (h *handlers) getEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ev, err := h.svcs.Events.Get(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, toEventResponse(ev), "private, max-age=5", true)
}

// listEvents godoc
//
//	@Summary	List events
//	@Tags		events
//	@Produce	json
//	@Param		status	query	string	false	"filter by status"	Enums(draft, active, cancelled)
//	@Success	200	{array}		EventResponse
//	@Failure	400	{object}	ErrorResponse
//	@Router		/events [get]
func (h *handlers) listEvents(c *gin.Context) {
	var status *domain.EventStatus
	if s := c.Query("status"); s != "" {
		es := domain.EventStatus(s)
		status = &es
	}

	evs, err := h.svcs.Events.List(c.Request.Context(), status)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	out := make([]EventResponse, 0, len(evs))
	for i := range evs {
		out = append(out, toEventResponse(&evs[i]))
	}

	c.JSON(http.StatusOK, out)
}

// updateEvent godoc
//
//	@Summary	Update an event
//	@Tags		events
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"event id"
//	@Param		request	body		UpdateEventRequest	true	"fields to change"
//	@Success	200		{object}	EventResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/events/{id} [put]
func (h *handlers) updateEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := events.UpdateParams{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		Organizer:        req.Organizer,
		Capacity:         req.Capacity,
		WaitlistEnabled:  req.WaitlistEnabled,
		WaitlistCapacity: req.WaitlistCapacity,
	}
	if req.Date != nil {
		date, err := parseRFC3339(*req.Date)
		if err != nil {
			badRequest(c, errors.New("date must be RFC 3339"))
			return
		}
		p.Date = &date
	}
	if req.Status != nil {
		st := domain.EventStatus(*req.Status)
		p.Status = &st
	}

	ev, err := h.svcs.Events.Update(c.Request.Context(), id, p)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toEventResponse(ev))
}

// deleteEvent godoc
//
//	@Summary	Delete an event and its registrations
//	@Tags		events
//	@Param		id	path	string	true	"event id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/events/{id} [delete]
func (h *handlers) deleteEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svcs.Events.Delete(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// register godoc
//
//	@Summary	Register a subscriber for an event
//	@Description	Admits the subscriber while seats remain, otherwise queues
//	@Description	them on the waitlist. Safe to retry with the same
//	@Description	Idempotency-Key header.
//	@Tags		registrations
//	@Accept		json
//	@Produce	json
//	@Param		id				path		string						true	"event id"
//	@Param		Idempotency-Key	header		string						false	"dedupe key"
//	@Param		request			body		CreateRegistrationRequest	true	"subscriber"
//	@Success	201				{object}	RegistrationResponse
//	@Failure	404				{object}	ErrorResponse
//	@Failure	409				{object}	ErrorResponse
//	@Failure	429				{object}	ErrorResponse
//	@Router		/events/{id}/registrations [post]
func (h *handlers) register(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subscriberID := uuid.MustParse(req.SubscriberID)

	ctx := c.Request.Context()

	idemKey := c.GetHeader("Idempotency-Key")
	if h.idem != nil && idemKey != "" {
		key := redisrepo.KeyIdemRegistration(eventID, idemKey)

		if payload, found, err := h.idem.GetResult(ctx, key); err == nil && found {
			c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
			return
		}

		locked, err := h.idem.AcquireLock(ctx, key, 10*time.Second)
		if err == nil && !locked {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusConflict, ErrorResponse{Error: "request with this idempotency key is in flight"})
			return
		}

		defer func() {
			if c.Writer.Status() != http.StatusCreated {
				_ = h.idem.Release(ctx, key)
			}
		}()
	}

	reg, err := h.svcs.Allocation.Register(ctx, subscriberID, eventID, "ip:"+c.ClientIP())
	if err != nil {
		h.respondErr(c, err)
		return
	}

	resp := toRegistrationResponse(reg)

	if h.idem != nil && idemKey != "" {
		if b, err := marshalJSON(resp); err == nil {
			_ = h.idem.SaveResult(ctx, redisrepo.KeyIdemRegistration(eventID, idemKey), string(b))
		}
	}

	c.JSON(http.StatusCreated, resp)
}

// unregister godoc
//
//	@Summary	Cancel a registration
//	@Description	Removes the subscriber's registration. Cancelling a
//	@Description	confirmed seat promotes the waitlist head; the promoted
//	@Description	registration, if any, is returned.
//	@Tags		registrations
//	@Produce	json
//	@Param		id				path		string	true	"event id"
//	@Param		subscriberID	path		string	true	"subscriber id"
//	@Success	200				{object}	UnregisterResponse
//	@Failure	404				{object}	ErrorResponse
//	@Router		/events/{id}/registrations/{subscriberID} [delete]
func (h *handlers) unregister(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	subscriberID, ok := pathUUID(c, "subscriberID")
	if !ok {
		return
	}

	promoted, err := h.svcs.Allocation.Unregister(c.Request.Context(), subscriberID, eventID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	var resp UnregisterResponse
	if promoted != nil {
		r := toRegistrationResponse(promoted)
		resp.Promoted = &r
	}

	c.JSON(http.StatusOK, resp)
}

// listEventRegistrations godoc
//
//	@Summary	List registrations for an event
//	@Description	Confirmed registrations first, then waitlisted entries in
//	@Description	rank order.
//	@Tags		registrations
//	@Produce	json
//	@Param		id		path	string	true	"event id"
//	@Param		status	query	string	false	"filter by status"	Enums(confirmed, waitlisted)
//	@Success	200	{array}		RegistrationResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/events/{id}/registrations [get]
func (h *handlers) listEventRegistrations(c *gin.Context) {
	eventID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	status, ok := queryRegStatus(c)
	if !ok {
		return
	}

	regs, err := h.svcs.Allocation.ListByEvent(c.Request.Context(), eventID, status)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, toRegistrationResponses(regs), "private, max-age=5", true)
}

// listSubscriberRegistrations godoc
//
//	@Summary	List a subscriber's registrations
//	@Tags		registrations
//	@Produce	json
//	@Param		id		path	string	true	"subscriber id"
//	@Param		status	query	string	false	"filter by status"	Enums(confirmed, waitlisted)
//	@Success	200	{array}		RegistrationResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/subscribers/{id}/registrations [get]
func (h *handlers) listSubscriberRegistrations(c *gin.Context) {
	subscriberID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	status, ok := queryRegStatus(c)
	if !ok {
		return
	}

	regs, err := h.svcs.Allocation.ListBySubscriber(c.Request.Context(), subscriberID, status)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toRegistrationResponses(regs))
}

// createSubscriber godoc
//
//	@Summary	Create a subscriber
//	@Tags		subscribers
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateSubscriberRequest	true	"subscriber fields"
//	@Success	201		{object}	SubscriberResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/subscribers [post]
func (h *handlers) createSubscriber(c *gin.Context) {
	var req CreateSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sub, err := h.svcs.Subscribers.Create(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSubscriberResponse(sub))
}

// getSubscriber godoc
//
//	@Summary	Get a subscriber
//	@Tags		subscribers
//	@Produce	json
//	@Param		id	path		string	true	"subscriber id"
//	@Success	200	{object}	SubscriberResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/subscribers/{id} [get]
func (h *handlers) getSubscriber(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sub, err := h.svcs.Subscribers.Get(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubscriberResponse(sub))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, errors.New(name+" must be a uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func queryRegStatus(c *gin.Context) (*domain.RegistrationStatus, bool) {
	s := c.Query("status")
	if s == "" {
		return nil, true
	}

	st := domain.RegistrationStatus(s)
	switch st {
	case domain.RegistrationConfirmed, domain.RegistrationWaitlisted:
		return &st, true
	}

	badRequest(c, errors.New("status must be confirmed or waitlisted"))
	return nil, false
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// respondErr maps service sentinels onto HTTP statuses. Unrecognized errors
// are logged and masked as a bare 500.
func (h *handlers) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, allocation.ErrEventNotFound),
		errors.Is(err, allocation.ErrSubscriberNotFound),
		errors.Is(err, allocation.ErrRegistrationNotFound),
		errors.Is(err, events.ErrNotFound),
		errors.Is(err, subscribers.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, allocation.ErrAlreadyRegistered),
		errors.Is(err, allocation.ErrEventInactive),
		errors.Is(err, allocation.ErrEventFull),
		errors.Is(err, allocation.ErrWaitlistFull),
		errors.Is(err, events.ErrCapacityBelowAttendees),
		errors.Is(err, subscribers.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, allocation.ErrTooMuchContention):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, allocation.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})

	case errors.Is(err, events.ErrTitleRequired),
		errors.Is(err, events.ErrInvalidCapacity),
		errors.Is(err, events.ErrInvalidStatus),
		errors.Is(err, subscribers.ErrEmailRequired),
		errors.Is(err, subscribers.ErrNameRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	default:
		_ = c.Error(err)
		h.logger.Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
