package ws

import (
	"context"
	"datalingua/internal/logger"
	"datalingua/internal/model"
	"datalingua/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards authenticate with a token
	},
}

// TokenValidator checks dashboard tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.Claims, error)
}

// SurveyReader checks the account may watch the survey
type SurveyReader interface {
	Get(ctx context.Context, actor service.Actor, id string) (*model.Survey, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	auth    TokenValidator
	surveys SurveyReader
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, auth TokenValidator, surveys SurveyReader) *Handler {
	return &Handler{
		hub:     hub,
		auth:    auth,
		surveys: surveys,
	}
}

// DashboardWS handles GET /v1/ws/surveys/{id}/dashboard
func (h *Handler) DashboardWS(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	actor := service.Actor{ID: claims.AccountID, Role: claims.Role}
	if _, err := h.surveys.Get(r.Context(), actor, surveyID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.Error(w, "survey not found", http.StatusNotFound)
		case errors.Is(err, service.ErrForbidden):
			http.Error(w, "not allowed to watch this survey", http.StatusForbidden)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := &Connection{
		SurveyID:  surveyID,
		AccountID: claims.AccountID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}

	hello, _ := json.Marshal(&Message{
		Type:     MsgConnected,
		SurveyID: surveyID,
		Payload:  json.RawMessage(`{}`),
		SentAt:   time.Now(),
	})
	conn.Send <- hello

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// dashboards only listen; reads keep the deadline and close detection alive
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithError(err).Warn("websocket closed unexpectedly")
			}
			break
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
