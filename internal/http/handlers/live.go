package handlers

import (
	"context"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hongminglow/carecrate/internal/feed"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// liveMessage is pushed to the client on every feed update.
type liveMessage struct {
	Type     string         `json:"type"`
	DayStart int64          `json:"dayStart"`
	Visits   []models.Visit `json:"visits"`
}

// LiveHandler streams today's visits over a websocket, one feed per connection.
type LiveHandler struct {
	source   feed.Source
	loc      *time.Location
	upgrader websocket.Upgrader
}

func NewLiveHandler(source feed.Source, loc *time.Location, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		source: source,
		loc:    loc,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: writeWait,
			CheckOrigin:      originChecker(allowedOrigins),
		},
	}
}

func (h *LiveHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("GET /visits/live", mw.RequireSession(h.handleLive))
}

func (h *LiveHandler) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live visits: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	f := feed.New(h.source, feed.WithLocation(h.loc))
	if err := f.Start(ctx); err != nil {
		log.Printf("live visits: start feed: %v", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer f.Close()

	// read loop ends on client close/error
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case visits, ok := <-f.Updates():
			if !ok {
				if err := f.Err(); err != nil {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "feed ended"),
						time.Now().Add(writeWait))
				}
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := liveMessage{Type: "visits", DayStart: f.DayStart().UnixMilli(), Visits: visits}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// originChecker allows same-origin requests, non-browser clients and the
// configured CORS origins.
func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := slices.Contains(allowed, "*")
	normalized := make([]string, 0, len(allowed))
	for _, origin := range allowed {
		normalized = append(normalized, strings.ToLower(strings.TrimRight(origin, "/")))
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		origin = strings.ToLower(origin)
		if origin == "http://"+strings.ToLower(r.Host) || origin == "https://"+strings.ToLower(r.Host) {
			return true
		}
		return slices.Contains(normalized, origin)
	}
}
