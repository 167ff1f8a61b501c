package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// StreamPostChanges opens the server-sent-events change stream and
// delivers decoded events on the returned channel. The channel closes
// when the stream ends for any reason (server close, network error,
// context cancellation); callers resubscribe and reload to repair gaps.
func (b *HTTPBackend) StreamPostChanges(ctx context.Context) (<-chan ChangeEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/posts/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if b.tokens != nil {
		if token := b.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// The stream client must not inherit the request timeout used for
	// plain API calls; the connection stays open until cancelled.
	streamClient := &http.Client{Transport: b.http.Transport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{
			Code:       "ERR_STREAM_REJECTED",
			Message:    "change stream connection rejected",
			HTTPStatus: resp.StatusCode,
			wrapped:    sentinelForCode("", resp.StatusCode),
		}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: change stream endpoint returned %q", ErrMalformedResponse, ct)
	}

	events := make(chan ChangeEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		b.readEvents(ctx, resp.Body, events)
	}()
	return events, nil
}

// readEvents parses the text/event-stream framing: "event:" and "data:"
// lines accumulate until a blank line dispatches the event.
func (b *HTTPBackend) readEvents(ctx context.Context, body interface{ Read([]byte) (int, error) }, events chan<- ChangeEvent) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var eventName string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if eventName == "post_change" && data.Len() > 0 {
				var change ChangeEvent
				if err := json.Unmarshal([]byte(data.String()), &change); err != nil {
					b.logger.Warn("Dropping undecodable change event", zap.Error(err))
				} else {
					select {
					case events <- change:
					case <-ctx.Done():
						return
					}
				}
			}
			eventName = ""
			data.Reset()
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// heartbeat comment, ignore
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		b.logger.Debug("Change stream closed", zap.Error(err))
	}
}
