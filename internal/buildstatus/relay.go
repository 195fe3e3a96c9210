// Package buildstatus relays server-sent events from the external build
// orchestration API to browser clients, so the frontend's build page can
// stream progress without talking to the orchestrator directly.
package buildstatus

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Relay proxies an upstream SSE endpoint. Events are forwarded line by
// line and flushed at event boundaries; the relay holds no buffer beyond
// the line being copied and stops when either side goes away.
type Relay struct {
	upstream string
	client   *http.Client
}

// NewRelay creates a Relay for the given upstream URL. An empty URL is
// allowed; the handler then reports the stream as unconfigured.
func NewRelay(upstream string) *Relay {
	return &Relay{
		upstream: upstream,
		// No overall timeout: the stream is long-lived. Dialing is still
		// bounded by the transport defaults.
		client: &http.Client{},
	}
}

// HandleStream handles GET /api/build/stream requests.
func (rl *Relay) HandleStream(w http.ResponseWriter, r *http.Request) {
	if rl.upstream == "" {
		writeError(w, http.StatusServiceUnavailable, "build status stream not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rl.upstream, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "invalid upstream url")
		return
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := rl.client.Do(req)
	if err != nil {
		slog.Warn("build status upstream unreachable", "upstream", rl.upstream, "error", err)
		writeError(w, http.StatusBadGateway, "build status upstream unreachable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("build status upstream error", "upstream", rl.upstream, "status", resp.StatusCode)
		writeError(w, http.StatusBadGateway, "build status upstream unreachable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	start := time.Now()
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if _, err := w.Write(line); err != nil {
			return
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return
		}
		// A blank line terminates an SSE event; flush so the client sees
		// it immediately.
		if len(line) == 0 {
			flusher.Flush()
		}
	}
	flusher.Flush()

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && r.Context().Err() == nil {
		slog.Warn("build status stream interrupted", "error", err, "duration", time.Since(start))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
