package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/service"
	"stockpulse/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server exposes the websocket endpoint, the ingestion control surface and
// the cache read path. Everything else the platform does lives outside this
// process.
type Server struct {
	baseCtx context.Context // process lifecycle context for engine restarts
	hub     *Hub
	engine  *service.Engine
	cache   *service.QuoteCache
	orders  *service.OrderService
}

func NewServer(baseCtx context.Context, hub *Hub, engine *service.Engine, cache *service.QuoteCache, orders *service.OrderService) *Server {
	return &Server{baseCtx: baseCtx, hub: hub, engine: engine, cache: cache, orders: orders}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("POST /ingest/start", s.handleStart)
	mux.HandleFunc("POST /ingest/stop", s.handleStop)
	mux.HandleFunc("GET /ingest/status", s.handleStatus)
	mux.HandleFunc("GET /quotes", s.handleQuotes)
	mux.HandleFunc("POST /orders", s.handleCreateOrder)
	return mux
}

// handleWS upgrades the connection, registers it with the hub (binding the
// optional user id for private execution notices) and parks until the peer
// goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		userID = id
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConn(wsConn)

	var initial []byte
	if quotes := s.cache.All(); len(quotes) > 0 {
		initial, _ = json.Marshal(service.UpdateMessage{Type: "update", Data: quotes})
	}
	s.hub.Subscribe(conn, userID, initial)
	log.Info().Int64("user_id", userID).Int("subscribers", s.hub.SubscriberCount()).Msg("client subscribed")

	// Inbound frames are ignored; the read loop only detects disconnects.
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unsubscribe(conn, userID)
	_ = conn.Close()
	log.Info().Int64("user_id", userID).Msg("client disconnected")
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.engine.Start(s.baseCtx)
	writeJSON(w, map[string]any{"running": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()
	writeJSON(w, map[string]any{"running": false})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"running": s.engine.Running()})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cache.All())
}

type createOrderRequest struct {
	UserID       int64   `json:"user_id"`
	InstrumentID int     `json:"stock_id"`
	Side         string  `json:"side"`
	Quantity     int64   `json:"quantity"`
	TargetPrice  float64 `json:"target_price"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	order, err := s.orders.PlaceTrigger(r.Context(), req.UserID, req.InstrumentID, side, req.Quantity, req.TargetPrice)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"order_id": order.ID, "status": string(order.Status)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
