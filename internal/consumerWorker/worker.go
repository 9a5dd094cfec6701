package consumerWorker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wb-go/wbf/zlog"

	"colloquium/internal/notify"
)

type Consumer interface {
	Consume(handler func([]byte) error) error
}

// Reader delivers queued notification jobs through the dispatcher.
type Reader struct {
	RMQ        Consumer
	dispatcher notify.Dispatcher
	timeout    time.Duration
	done       chan struct{}
	cancel     context.CancelFunc
}

func NewReader(rmq Consumer, dispatcher notify.Dispatcher, timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Reader{
		RMQ:        rmq,
		dispatcher: dispatcher,
		timeout:    timeout,
		done:       make(chan struct{}),
	}
}

func (r *Reader) handle(ctx context.Context, body []byte) error {
	var job notify.Job
	if err := json.Unmarshal(body, &job); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("Failed to unmarshal notification: %s", string(body))
		return err
	}

	zlog.Logger.Info().
		Str("kind", string(job.Kind)).
		Msg("Received notification from RabbitMQ")

	dctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := notify.Deliver(dctx, r.dispatcher, job); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Str("kind", string(job.Kind)).
			Msg("Failed to send notification e-mail")
		return err
	}
	return nil
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("RabbitMQ Reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			return r.handle(cctx, body)
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("RabbitMQ Reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
