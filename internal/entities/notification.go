package entities

import (
	"bytes"
	"encoding/gob"
	"time"
)

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
	NotificationInfo    NotificationLevel = "info"
)

// Filterable notification types. A notification with an empty Type is
// never filtered by settings.
const (
	NotificationTypeOrderUpdate        = "order_update"
	NotificationTypeInventoryAlert     = "inventory_alert"
	NotificationTypeReturnRequest      = "return_request"
	NotificationTypeInspectionComplete = "inspection_complete"
)

// Notification is a projection over one Activity entry. It is derived, not
// stored: ID equals the source activity ID, so re-deriving over unchanged
// data yields identical notifications.
type Notification struct {
	ID        string
	Level     NotificationLevel
	Title     string
	Message   string
	Type      string // filterable type tag, may be empty
	UserID    string
	Read      bool
	Timestamp time.Time
}

// NotificationSettings maps a notification type to whether the user wants
// it. Types absent from the map are delivered.
type NotificationSettings map[string]bool

func (s NotificationSettings) Allows(notificationType string) bool {
	if notificationType == "" {
		return true
	}
	enabled, ok := s[notificationType]
	return !ok || enabled
}

// LabelRef is a resolved shipping label artifact reference.
type LabelRef struct {
	URL      string
	FileName string
	Provider string
	Carrier  string
}

func (l *LabelRef) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (l *LabelRef) Unmarshal(data []byte) error {
	return gob.NewDecoder(bytes.NewBuffer(data)).Decode(l)
}
