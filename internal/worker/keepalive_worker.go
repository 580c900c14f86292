package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// KeepAliveWorker pings the public URL on a fixed interval so the
// hosting platform does not idle the process.
type KeepAliveWorker struct {
	url      string
	interval time.Duration
	client   *http.Client
}

// NewKeepAliveWorker constructs a KeepAliveWorker.
func NewKeepAliveWorker(url string, interval time.Duration) *KeepAliveWorker {
	return &KeepAliveWorker{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Start begins the ping loop and listens for context cancellation.
func (w *KeepAliveWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting keep-alive worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Keep-alive worker stopped")
			return
		}
	}
}

func (w *KeepAliveWorker) run(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build keep-alive request")
		return
	}
	resp, err := w.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("Keep-alive ping failed")
		return
	}
	_ = resp.Body.Close()
}
