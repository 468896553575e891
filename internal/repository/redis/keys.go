package redis

import (
	"fmt"

	"github.com/google/uuid"
)

const ns = "attendly:v1"

func KeyEventSummary(eventID uuid.UUID) string {
	return fmt.Sprintf("%s:event:%s:summary", ns, eventID)
}

func KeyEventRoster(eventID uuid.UUID) string {
	return fmt.Sprintf("%s:event:%s:roster", ns, eventID)
}

func KeyIdemRegistration(eventID uuid.UUID, idemKey string) string {
	return fmt.Sprintf("%s:idem:registrations:%s:%s", ns, eventID, idemKey)
}

func ChannelRegistrationsChanged() string {
	return ns + ":registrations:changed"
}
