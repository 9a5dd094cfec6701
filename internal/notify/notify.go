package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"colloquium/internal/model"
)

type Kind string

const (
	KindConfirmation  Kind = "rsvp_confirmation"
	KindTributeNotice Kind = "tribute_notice"
)

// Job is one best-effort notification, also the queue message body.
type Job struct {
	Kind    Kind           `json:"kind"`
	RSVP    *model.RSVP    `json:"rsvp,omitempty"`
	Tribute *model.Tribute `json:"tribute,omitempty"`
}

func Confirmation(r model.RSVP) Job {
	return Job{Kind: KindConfirmation, RSVP: &r}
}

func TributeNotice(t model.Tribute) Job {
	return Job{Kind: KindTributeNotice, Tribute: &t}
}

type Dispatcher interface {
	SendConfirmation(ctx context.Context, rsvp model.RSVP) error
	SendTributeNotice(ctx context.Context, t model.Tribute) error
}

// Notifier accepts a job and returns immediately. Delivery errors are
// logged by the notifier and never reach the caller.
type Notifier interface {
	Notify(job Job)
}

func Deliver(ctx context.Context, d Dispatcher, job Job) error {
	switch job.Kind {
	case KindConfirmation:
		if job.RSVP == nil {
			return fmt.Errorf("confirmation job without rsvp")
		}
		return d.SendConfirmation(ctx, *job.RSVP)
	case KindTributeNotice:
		if job.Tribute == nil {
			return fmt.Errorf("tribute notice job without tribute")
		}
		return d.SendTributeNotice(ctx, *job.Tribute)
	default:
		return fmt.Errorf("unknown notification kind %q", job.Kind)
	}
}

// Direct delivers each job on its own goroutine, bounded by timeout.
type Direct struct {
	d       Dispatcher
	timeout time.Duration
	log     *zerolog.Logger
	wg      sync.WaitGroup
}

func NewDirect(d Dispatcher, timeout time.Duration, log *zerolog.Logger) *Direct {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Direct{d: d, timeout: timeout, log: log}
}

func (n *Direct) Notify(job Job) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := Deliver(ctx, n.d, job); err != nil {
			n.log.Warn().Err(err).Str("kind", string(job.Kind)).Msg("notification failed")
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (n *Direct) Wait() {
	n.wg.Wait()
}

type Publisher interface {
	Publish(ctx context.Context, message []byte) error
}

// Queued publishes jobs for the consumer worker. If publishing fails the
// job is handed to fallback instead.
type Queued struct {
	pub      Publisher
	fallback Notifier
	timeout  time.Duration
	log      *zerolog.Logger
}

func NewQueued(pub Publisher, fallback Notifier, log *zerolog.Logger) *Queued {
	return &Queued{pub: pub, fallback: fallback, timeout: 5 * time.Second, log: log}
}

func (n *Queued) Notify(job Job) {
	payload, err := json.Marshal(job)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		err = n.pub.Publish(ctx, payload)
		cancel()
	}
	if err == nil {
		return
	}
	n.log.Warn().Err(err).Str("kind", string(job.Kind)).Msg("failed to queue notification, delivering directly")
	if n.fallback != nil {
		n.fallback.Notify(job)
	}
}
