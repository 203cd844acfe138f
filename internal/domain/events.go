package domain

import "time"

// EventType identifies a discrete engine event. Events are the engine's only
// coupling to logging/UI/notification layers.
type EventType string

const (
	EventSessionStarted       EventType = "SESSION_STARTED"
	EventSessionStopped       EventType = "SESSION_STOPPED"
	EventTradeRecorded        EventType = "TRADE_RECORDED"
	EventSpeedModeChanged     EventType = "SPEED_MODE_CHANGED"
	EventAuditReportGenerated EventType = "AUDIT_REPORT_GENERATED"
	EventInvariantViolated    EventType = "INVARIANT_VIOLATED"
)

// Event is a single engine event. Message is always suitable for direct
// display; Trade and Report are set for the corresponding event types only.
type Event struct {
	Type      EventType
	SessionID string
	At        time.Time
	Message   string

	Trade  *TradeRecord
	Report *AuditReport
}
