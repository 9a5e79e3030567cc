package service

// Dashboard message types
const (
	MsgSessionActivity   = "session_activity"
	MsgResponseSubmitted = "response_submitted"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSurvey(surveyID string, msgType string, payload interface{})
}
