package ws

import (
	"datalingua/internal/logger"
	"datalingua/internal/metrics"
	"encoding/json"
	"sync"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Dashboard message types
const (
	MsgSessionActivity   MessageType = "session_activity"
	MsgResponseSubmitted MessageType = "response_submitted"
	MsgConnected         MessageType = "connected"
)

// Message is the WebSocket envelope format
type Message struct {
	Type     MessageType     `json:"type"`
	SurveyID string          `json:"surveyId"`
	Payload  json.RawMessage `json:"payload"`
	SentAt   time.Time       `json:"sentAt"`
}

// Hub fans survey events out to the dashboards watching each survey
type Hub struct {
	// survey -> watching connections
	watchers map[string]map[*Connection]struct{}

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once
}

// Connection is one dashboard watching one survey
type Connection struct {
	SurveyID  string
	AccountID string
	Send      chan []byte
	Hub       *Hub
}

// BroadcastMessage is a message addressed to a survey's watchers
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for surveyID, conns := range h.watchers {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.watchers, surveyID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.SurveyID] == nil {
				h.watchers[conn.SurveyID] = make(map[*Connection]struct{})
			}
			h.watchers[conn.SurveyID][conn] = struct{}{}
			h.mu.Unlock()
			metrics.DashboardClients.Inc()
			logger.WithFields(logger.Fields{"survey": conn.SurveyID, "account": conn.AccountID}).Info("dashboard connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.SurveyID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					metrics.DashboardClients.Dec()
					if len(conns) == 0 {
						delete(h.watchers, conn.SurveyID)
					}
					logger.WithFields(logger.Fields{"survey": conn.SurveyID, "account": conn.AccountID}).Info("dashboard disconnected")
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				logger.WithError(err).Warn("failed to encode dashboard message")
				continue
			}
			h.mu.RLock()
			for conn := range h.watchers[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Watchers returns the number of dashboards watching a survey
func (h *Hub) Watchers(surveyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[surveyID])
}

// BroadcastToSurvey sends a message to every dashboard of the survey
// (implements service.Broadcaster). It never blocks; when the hub is
// backed up the message is dropped.
func (h *Hub) BroadcastToSurvey(surveyID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Warnf("failed to encode %s payload", msgType)
		return
	}
	msg := &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:     MessageType(msgType),
			SurveyID: surveyID,
			Payload:  data,
			SentAt:   time.Now(),
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		logger.WithFields(logger.Fields{"survey": surveyID, "type": msgType}).Warn("dashboard hub busy, message dropped")
	}
}

// Close disconnects every dashboard and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
