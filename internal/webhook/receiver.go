package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/metrics"
)

const maxBodyBytes = 1 << 20

// Entry is one received payload.
type Entry struct {
	ID         int64           `json:"id"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Receiver keeps the most recent payloads in a fixed-size ring.
type Receiver struct {
	mu      sync.Mutex
	ring    []Entry
	head    int // next write slot
	size    int
	total   int64
	origins []string
	now     func() time.Time
}

// NewReceiver returns a receiver storing at most maxStored entries.
func NewReceiver(maxStored int, allowedOrigins []string) *Receiver {
	if maxStored <= 0 {
		maxStored = 500
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Receiver{
		ring:    make([]Entry, maxStored),
		origins: allowedOrigins,
		now:     time.Now,
	}
}

// Routes returns the receiver's router.
func (rc *Receiver) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rc.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/pain-signal-webhook", rc.handleWebhook)
	r.Get("/health", rc.handleHealth)
	r.Get("/webhooks", rc.handleList)
	r.Handle("/metrics", metrics.Handler())
	return r
}

// Store appends a payload and returns its id.
func (rc *Receiver) Store(payload json.RawMessage) Entry {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.total++
	e := Entry{ID: rc.total, ReceivedAt: rc.now().UTC(), Payload: payload}
	rc.ring[rc.head] = e
	rc.head = (rc.head + 1) % len(rc.ring)
	if rc.size < len(rc.ring) {
		rc.size++
	}
	return e
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (rc *Receiver) Recent(limit int) []Entry {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	n := rc.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (rc.head - i + len(rc.ring)) % len(rc.ring)
		out = append(out, rc.ring[idx])
	}
	return out
}

// Stats returns the total received and the number currently stored.
func (rc *Receiver) Stats() (total int64, stored int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.total, rc.size
}

func (rc *Receiver) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read body"})
		return
	}
	if len(body) > maxBodyBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		return
	}
	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	e := rc.Store(json.RawMessage(body))
	metrics.ReceiverWebhooks.Inc()

	var head struct {
		CompanyName string  `json:"company_name"`
		TAMTier     string  `json:"tam_tier"`
		PSIScore    float64 `json:"psi_score"`
	}
	_ = json.Unmarshal(body, &head)
	zap.L().Info("webhook: payload received",
		zap.Int64("id", e.ID),
		zap.String("company", head.CompanyName),
		zap.String("tier", head.TAMTier),
		zap.Float64("psi", head.PSIScore),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "received",
		"id":          e.ID,
		"received_at": e.ReceivedAt,
	})
}

func (rc *Receiver) handleHealth(w http.ResponseWriter, _ *http.Request) {
	total, stored := rc.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"webhooks_received": total,
		"webhooks_stored":   stored,
	})
}

func (rc *Receiver) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	entries := rc.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{"count": len(entries), "webhooks": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// ListenAndServe serves handler on port until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("webhook: receiver listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "webhook: listen")
		}
		return nil
	case <-ctx.Done():
		zap.L().Info("webhook: shutting down receiver")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "webhook: shutdown")
		}
		return nil
	}
}
