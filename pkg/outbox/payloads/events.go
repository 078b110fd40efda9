package payloads

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/enums"
)

// NotificationRequestedEvent asks the worker to store one in-app notification.
type NotificationRequestedEvent struct {
	ReceiverID uuid.UUID              `json:"receiver_id"`
	Kind       enums.NotificationKind `json:"kind"`
	Content    string                 `json:"content"`
	URL        string                 `json:"url"`
}

// Validate is run by the publisher before sending and by the worker before
// storing, so a bad row dead-letters instead of reaching a user.
func (e NotificationRequestedEvent) Validate() error {
	switch {
	case e.ReceiverID == uuid.Nil:
		return errors.New("receiver_id is required")
	case !e.Kind.IsValid():
		return errors.New("kind is invalid")
	case strings.TrimSpace(e.Content) == "":
		return errors.New("content is required")
	}
	return nil
}
