package httpgin

import (
	"encoding/json"
	"time"

	"github.com/attendly/attendly/internal/domain"
)

type CreateEventRequest struct {
	Title            string `json:"title" binding:"required,min=1,max=200"`
	Description      string `json:"description"`
	Date             string `json:"date" binding:"required"`
	Location         string `json:"location"`
	Organizer        string `json:"organizer"`
	Status           string `json:"status"`
	Capacity         int    `json:"capacity" binding:"required,gt=0"`
	WaitlistEnabled  bool   `json:"waitlist_enabled"`
	WaitlistCapacity int    `json:"waitlist_capacity" binding:"omitempty,gt=0"`
}

type UpdateEventRequest struct {
	Title            *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description      *string `json:"description"`
	Date             *string `json:"date"`
	Location         *string `json:"location"`
	Organizer        *string `json:"organizer"`
	Status           *string `json:"status"`
	Capacity         *int    `json:"capacity" binding:"omitempty,gt=0"`
	WaitlistEnabled  *bool   `json:"waitlist_enabled"`
	WaitlistCapacity *int    `json:"waitlist_capacity" binding:"omitempty,gt=0"`
}

type CreateRegistrationRequest struct {
	SubscriberID string `json:"subscriber_id" binding:"required,uuid"`
}

type CreateSubscriberRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type EventResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Date             string `json:"date"`
	Location         string `json:"location"`
	Organizer        string `json:"organizer"`
	Status           string `json:"status"`
	Capacity         int    `json:"capacity"`
	CurrentAttendees int    `json:"current_attendees"`
	SeatsLeft        int    `json:"seats_left"`
	WaitlistEnabled  bool   `json:"waitlist_enabled"`
	WaitlistCapacity int    `json:"waitlist_capacity,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type RegistrationResponse struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	SubscriberID string `json:"subscriber_id"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at"`
	WaitlistRank *int   `json:"waitlist_rank,omitempty"`
}

type UnregisterResponse struct {
	Promoted *RegistrationResponse `json:"promoted,omitempty"`
}

type SubscriberResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func toEventResponse(e *domain.Event) EventResponse {
	return EventResponse{
		ID:               e.ID.String(),
		Title:            e.Title,
		Description:      e.Description,
		Date:             e.Date.Format(time.RFC3339),
		Location:         e.Location,
		Organizer:        e.Organizer,
		Status:           string(e.Status),
		Capacity:         e.Capacity,
		CurrentAttendees: e.CurrentAttendees,
		SeatsLeft:        e.SeatsLeft(),
		WaitlistEnabled:  e.WaitlistEnabled,
		WaitlistCapacity: e.WaitlistCapacity,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}

func toRegistrationResponse(r *domain.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:           r.ID.String(),
		EventID:      r.EventID.String(),
		SubscriberID: r.SubscriberID.String(),
		Status:       string(r.Status),
		RegisteredAt: r.RegisteredAt.Format(time.RFC3339Nano),
		WaitlistRank: r.WaitlistRank,
	}
}

func toRegistrationResponses(regs []domain.Registration) []RegistrationResponse {
	out := make([]RegistrationResponse, 0, len(regs))
	for i := range regs {
		out = append(out, toRegistrationResponse(&regs[i]))
	}
	return out
}

func toSubscriberResponse(s *domain.Subscriber) SubscriberResponse {
	return SubscriberResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
