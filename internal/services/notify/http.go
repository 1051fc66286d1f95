// Package notify delivers entering/leaving notifications to the counter.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/dto"
)

const (
	DefaultPostSendDelay  = 1000 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Second
)

// HTTPNotifier POSTs {"entering":"True|False"} to a fixed URL.
type HTTPNotifier struct {
	url           string
	postSendDelay time.Duration
	httpClient    *http.Client
}

// NewHTTPNotifier creates a notifier. postSendDelay is waited after every
// send attempt, successful or not.
func NewHTTPNotifier(url string, postSendDelay, timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if postSendDelay < 0 {
		postSendDelay = 0
	}
	return &HTTPNotifier{
		url:           url,
		postSendDelay: postSendDelay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (n *HTTPNotifier) Notify(ctx context.Context, entering bool) error {
	err := n.send(ctx, entering)

	if n.postSendDelay > 0 {
		timer := time.NewTimer(n.postSendDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	return err
}

func (n *HTTPNotifier) send(ctx context.Context, entering bool) error {
	body, err := json.Marshal(dto.NewEnteringMessage(entering))
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
