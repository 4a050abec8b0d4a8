package headlessvt

// NotificationPayload is the parsed form of an OSC 9 (simple) or OSC 99
// (structured desktop notification, spec supplemented feature) request.
// PayloadType distinguishes "title"/"body"/"?" (query) fragments for OSC 99,
// and is "body" for the plain OSC 9 and OSC 777 cases.
type NotificationPayload struct {
	ID          string
	Done        bool
	PayloadType string
	Encoding    string
	Actions     []string
	TrackClose  bool
	Timeout     int
	AppName     string
	Type        string
	IconName    string
	IconCacheID string
	Sound       string
	Urgency     int
	Occasion    string
	Data        []byte
}

// NotificationProvider handles desktop notification requests (OSC 9/99).
// Notify may return a response string to write back (used for OSC 99 "?"
// queries); an empty string means no response.
type NotificationProvider interface {
	Notify(payload *NotificationPayload) string
}

// NoopNotification discards all notifications and never replies.
type NoopNotification struct{}

func (NoopNotification) Notify(payload *NotificationPayload) string { return "" }

var _ NotificationProvider = NoopNotification{}
