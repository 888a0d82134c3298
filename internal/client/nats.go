package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"tabsync/internal/logging"
	"tabsync/internal/types"
)

// NATSSource receives messages published on a NATS subject.
type NATSSource struct {
	conn    *nats.Conn
	subject string
	log     logging.Logger
	owned   bool
}

// DialNATS connects to url and returns a source owning the connection.
func DialNATS(url, subject string, logger logging.Logger) (*NATSSource, error) {
	conn, err := nats.Connect(url,
		nats.Name("tabsync"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	source, err := NewNATSSource(conn, subject, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	source.owned = true
	return source, nil
}

func NewNATSSource(conn *nats.Conn, subject string, logger logging.Logger) (*NATSSource, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &NATSSource{
		conn:    conn,
		subject: subject,
		log:     logger.Named("nats").With(logging.F("subject", subject)),
	}, nil
}

func (s *NATSSource) Subscribe(ctx context.Context) (<-chan types.Message, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	raw := make(chan *nats.Msg, messageBufferSize)
	sub, err := s.conn.ChanSubscribe(s.subject, raw)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.log.Debug("subscribed")

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				s.log.Warn("unsubscribe failed", logging.F("err", err))
			}
			cancel()
		})
	}

	ch := make(chan types.Message, messageBufferSize)
	go func() {
		defer close(ch)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-raw:
				msg, err := types.DecodeMessage(m.Data)
				if err != nil {
					s.log.Warn("drop message", logging.F("err", err))
					continue
				}
				if !deliver(ctx, ch, msg) {
					return
				}
			}
		}
	}()
	return ch, stop, nil
}

// Publish sends msg on the source subject. The CLI uses it to replay
// recorded messages.
func (s *NATSSource) Publish(msg types.Message) error {
	data, err := types.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return s.conn.Publish(s.subject, data)
}

func (s *NATSSource) Close() {
	if s == nil || !s.owned {
		return
	}
	s.conn.Close()
}
