package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// TokenResult contains the result of a user token capture flow.
type TokenResult struct {
	UserToken string
	err       error
}

func (t *TokenResult) Error() error {
	return t.err
}

// tokenRequest is the JSON body the authorization page posts back once the
// browser-side bridge has minted a user token.
type tokenRequest struct {
	State string `json:"state"`
	Token string `json:"token"`
}

// TokenHandler serves the embedded authorization page and receives the
// captured user token. Implements the Handler interface for registration
// with a Router.
type TokenHandler struct {
	page       []byte
	state      string
	resultChan chan TokenResult
	once       sync.Once
	received   bool
	mu         sync.Mutex
}

// NewTokenHandler creates a new token capture handler serving the given
// rendered page. The state token should be cryptographically random so a
// submission can be tied to the login attempt that opened the browser.
func NewTokenHandler(page []byte, state string) *TokenHandler {
	return &TokenHandler{
		page:       page,
		state:      state,
		resultChan: make(chan TokenResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *TokenHandler) Routes() []string {
	return []string{"/", "/token"}
}

// ServeHTTP dispatches between the authorization page and the token
// submission endpoint.
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		h.servePage(w, r)
	case "/token":
		h.receiveToken(w, r)
	default:
		http.NotFound(w, r)
	}
}

// servePage writes the authorization page. The page may be reloaded any
// number of times; only the token submission is single-shot.
func (h *TokenHandler) servePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.page)
}

// receiveToken handles the posted token.
//
// Validates the state parameter and sends the result through the result channel.
func (h *TokenHandler) receiveToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Only handle one submission
	h.mu.Lock()
	if h.received {
		h.mu.Unlock()
		http.Error(w, "Token already received", http.StatusBadRequest)
		return
	}
	h.received = true
	h.mu.Unlock()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Send(TokenResult{err: fmt.Errorf("invalid token submission: %w", err)})
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.State != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.Send(TokenResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		err := fmt.Errorf("authorization failed: empty user token")
		h.Send(TokenResult{err: err})
		http.Error(w, "Empty user token", http.StatusBadRequest)
		return
	}

	h.Send(TokenResult{UserToken: req.Token})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// Send sends the token result through the channel (only once).
func (h *TokenHandler) Send(result TokenResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *TokenHandler) Result() <-chan TokenResult {
	return h.resultChan
}
