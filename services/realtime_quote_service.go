package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"stock_portfolio_backend/services/marketdata"

	"github.com/gorilla/websocket"
)

// WebSocket service configuration
const (
	MaxWebSocketClients   = 100
	WebSocketWriteTimeout = 10 * time.Second
	WebSocketPongTimeout  = 60 * time.Second
	WebSocketPingInterval = 30 * time.Second
	DefaultPushInterval   = 5 * time.Second
)

// WebSocketMessage is the envelope broadcast to clients
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// Client represents one connected WebSocket subscriber
type Client struct {
	conn       *websocket.Conn
	send       chan []byte
	subscribed map[string]bool
	mu         sync.RWMutex
}

// RealtimeQuoteService streams cached quotes to WebSocket subscribers. It
// only reads quotes already present in the gateway cache so streaming never
// spends provider rate budget of its own.
type RealtimeQuoteService struct {
	gateway    *marketdata.AlphaVantageService
	clients    map[*Client]bool
	broadcast  chan WebSocketMessage
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	isRunning  bool
	stopChan   chan struct{}

	pushInterval time.Duration
}

// Global realtime service
var GlobalRealtimeService *RealtimeQuoteService

// InitRealtimeQuoteService initializes the realtime quote service
func InitRealtimeQuoteService(gateway *marketdata.AlphaVantageService) error {
	GlobalRealtimeService = &RealtimeQuoteService{
		gateway:    gateway,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pushInterval: DefaultPushInterval,
		stopChan:     make(chan struct{}),
	}

	go GlobalRealtimeService.run()

	log.Println("Realtime Quote Service initialized")
	return nil
}

// Shutdown gracefully shuts down the service
func (s *RealtimeQuoteService) Shutdown() {
	s.StopPushing()
	close(s.shutdown)

	s.mu.Lock()
	for client := range s.clients {
		close(client.send)
		client.conn.Close()
	}
	s.clients = make(map[*Client]bool)
	s.mu.Unlock()

	log.Println("Realtime Quote Service shutdown complete")
}

// run drives the hub: client registration and broadcast fan-out
func (s *RealtimeQuoteService) run() {
	for {
		select {
		case <-s.shutdown:
			return

		case client := <-s.register:
			s.mu.Lock()
			if len(s.clients) >= MaxWebSocketClients {
				s.mu.Unlock()
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Server at capacity"))
				client.conn.Close()
				log.Printf("WebSocket client rejected: max clients reached (%d)", MaxWebSocketClients)
				continue
			}
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			log.Printf("WebSocket client connected. Total clients: %d", clientCount)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			log.Printf("WebSocket client disconnected. Total clients: %d", clientCount)

		case message := <-s.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("Error marshaling broadcast message: %v", err)
				continue
			}

			s.mu.Lock()
			deadClients := make([]*Client, 0)
			for client := range s.clients {
				if !client.wantsAny(message) {
					continue
				}
				select {
				case client.send <- data:
				default:
					// Client buffer full, mark for removal
					deadClients = append(deadClients, client)
				}
			}
			for _, client := range deadClients {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()
		}
	}
}

// wantsAny reports whether the client subscribed to the quote in message
func (c *Client) wantsAny(message WebSocketMessage) bool {
	quote, ok := message.Data.(*marketdata.Quote)
	if !ok {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscribed[quote.Symbol]
}

// HandleWebSocket upgrades the connection and starts the client pumps
func (s *RealtimeQuoteService) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	atCapacity := len(s.clients) >= MaxWebSocketClients
	s.mu.RUnlock()

	if atCapacity {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		conn:       conn,
		send:       make(chan []byte, 256),
		subscribed: make(map[string]bool),
	}

	s.register <- client

	go client.writePump()
	go client.readPump(s)
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads subscription commands from the WebSocket connection
func (c *Client) readPump(s *RealtimeQuoteService) {
	defer func() {
		s.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var cmd struct {
			Action  string   `json:"action"`
			Symbols []string `json:"symbols"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		switch cmd.Action {
		case "subscribe":
			c.mu.Lock()
			for _, symbol := range cmd.Symbols {
				c.subscribed[symbol] = true
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, symbol := range cmd.Symbols {
				delete(c.subscribed, symbol)
			}
			c.mu.Unlock()
		}
	}
}

// StartPushing starts the periodic cache-to-client push loop
func (s *RealtimeQuoteService) StartPushing() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("push loop already running")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go s.pushLoop()

	log.Printf("Started quote push loop (interval: %v)", s.pushInterval)
	return nil
}

// StopPushing stops the push loop
func (s *RealtimeQuoteService) StopPushing() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	close(s.stopChan)
	s.isRunning = false
	log.Println("Quote push loop stopped")
}

// pushLoop periodically pushes cached quotes for all subscribed symbols
func (s *RealtimeQuoteService) pushLoop() {
	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.pushCachedQuotes()
		}
	}
}

// pushCachedQuotes broadcasts every cached quote some client subscribed to
func (s *RealtimeQuoteService) pushCachedQuotes() {
	symbols := s.subscribedSymbols()
	if len(symbols) == 0 {
		return
	}

	now := time.Now().Format(time.RFC3339)
	for _, symbol := range symbols {
		cached, ok := s.gateway.Cache().Get("quote:" + symbol)
		if !ok {
			continue
		}
		quote, ok := cached.(*marketdata.Quote)
		if !ok {
			continue
		}

		select {
		case s.broadcast <- WebSocketMessage{Type: "quote", Data: quote, Time: now}:
		default:
			// Broadcast buffer full, drop this tick
			return
		}
	}
}

// subscribedSymbols returns the union of all client subscriptions
func (s *RealtimeQuoteService) subscribedSymbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var symbols []string
	for client := range s.clients {
		client.mu.RLock()
		for symbol := range client.subscribed {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
		client.mu.RUnlock()
	}
	return symbols
}
