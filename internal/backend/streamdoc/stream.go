package streamdoc

import (
	"encoding/json"

	"github.com/kitbase/authsync/internal/domain"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// signalBuffer is small on purpose: the bridge is level-triggered, so only
// the most recent observations matter.
const signalBuffer = 16

// stream consumes the backend's live auth-state subject and republishes the
// decoded signals on a Go channel. Latest-wins: when the consumer lags, the
// oldest buffered signal is dropped.
type stream struct {
	signals chan domain.AuthSignal
	sub     *nats.Subscription
	logger  *zap.Logger
}

func newStream(conn *nats.Conn, subject string, logger *zap.Logger) (*stream, error) {
	s := &stream{
		signals: make(chan domain.AuthSignal, signalBuffer),
		logger:  logger,
	}

	sub, err := conn.Subscribe(subject, s.onMessage)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	return s, nil
}

func (s *stream) onMessage(msg *nats.Msg) {
	var signal domain.AuthSignal
	if err := json.Unmarshal(msg.Data, &signal); err != nil {
		s.logger.Warn("Dropping malformed auth state document", zap.Error(err))
		return
	}
	s.push(signal)
}

func (s *stream) push(signal domain.AuthSignal) {
	for {
		select {
		case s.signals <- signal:
			return
		default:
			// Buffer full: discard the oldest observation and retry.
			select {
			case <-s.signals:
			default:
			}
		}
	}
}

func (s *stream) close() error {
	err := s.sub.Unsubscribe()
	close(s.signals)
	return err
}
