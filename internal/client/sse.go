package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tabsync/internal/logging"
	"tabsync/internal/types"
)

// SSESource follows the message stream of one window over server-sent
// events.
type SSESource struct {
	baseURL  string
	windowID int
	http     *http.Client
	log      logging.Logger
}

type SSEOption func(*SSESource)

func WithHTTPClient(httpClient *http.Client) SSEOption {
	return func(s *SSESource) {
		if httpClient != nil {
			s.http = httpClient
		}
	}
}

func WithSSELogger(logger logging.Logger) SSEOption {
	return func(s *SSESource) {
		if logger != nil {
			s.log = logger
		}
	}
}

func NewSSESource(baseURL string, windowID int, opts ...SSEOption) *SSESource {
	s := &SSESource{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		windowID: windowID,
		http:     &http.Client{},
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("sse")
	return s
}

func (s *SSESource) URL() string {
	return fmt.Sprintf("%s/v1/windows/%d/messages?follow=1", s.baseURL, s.windowID)
}

func (s *SSESource) Subscribe(ctx context.Context) (<-chan types.Message, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	streamID := uuid.NewString()
	log := s.log.With(logging.F("stream", streamID), logging.F("window", s.windowID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Stream-Id", streamID)

	resp, err := s.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn("stream open failed", logging.F("status", resp.StatusCode))
		return nil, nil, fmt.Errorf("stream %s: unexpected status %d: %s", s.URL(), resp.StatusCode, strings.TrimSpace(string(body)))
	}
	log.Debug("stream open", logging.F("url", s.URL()))

	ch := make(chan types.Message, messageBufferSize)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		start := time.Now()
		count := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 {
					continue
				}
				payload := strings.Join(dataLines, "\n")
				dataLines = dataLines[:0]
				msg, err := types.DecodeMessage([]byte(payload))
				if err != nil {
					log.Warn("drop message", logging.F("err", err))
					continue
				}
				if !deliver(ctx, ch, msg) {
					break
				}
				count++
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			log.Warn("stream scan error", logging.F("err", err))
		}
		log.Debug("stream close", logging.F("count", count), logging.F("dur", time.Since(start).String()))
	}()

	return ch, cancel, nil
}
