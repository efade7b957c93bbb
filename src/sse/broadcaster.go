// Package sse implements the process-local SSE subscriber registry:
// targeted fan-out to (device, pool) pairs with periodic liveness
// probing.
package sse

import (
	"context"
	"sync"
	"time"

	"github.com/ilix/server/src/crypto"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	clientBufferDepth = 10
	pingInterval      = 30 * time.Second
)

// Kind tags what a Message carries.
type Kind int

const (
	KindPing Kind = iota
	KindConnected
	KindPool
	KindTransfer
	KindLogout
)

// Message is one SSE record. Ping carries no Data - the handler renders
// it as a bare comment line rather than a dispatched event.
// Connected/Pool/Transfer/Logout render as named events.
type Message struct {
	Kind Kind
	Data any
}

type client struct {
	id string
	ch chan Message
}

// Broadcaster is the mutex-protected subscriber registry. The zero value
// is not usable; construct with New.
type Broadcaster struct {
	mu      sync.Mutex
	clients []client

	logger *logrus.Logger
	cancel context.CancelFunc
}

// New creates a Broadcaster and starts its 30s liveness-probe loop.
func New(logger *logrus.Logger) *Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broadcaster{logger: logger, cancel: cancel}
	go b.pingLoop(ctx)
	return b
}

// Stop ends the liveness-probe loop. It does not close client channels;
// handlers own their own channel lifecycle via request cancellation.
func (b *Broadcaster) Stop() {
	b.cancel()
}

// ClientID computes the registry key binding a subscription to both the
// device and the authenticated pool: hash("{deviceID}:{hashedKeyPhrase}").
func ClientID(deviceID, hashedKeyPhrase string) string {
	return crypto.Hash(deviceID + ":" + hashedKeyPhrase)
}

// NewClient registers a new subscriber and returns the channel it should
// read events from. Connected is sent synchronously before the client is
// appended to the registry, matching the ordering in utils/sse.rs.
func (b *Broadcaster) NewClient(deviceID, hashedKeyPhrase string) <-chan Message {
	ch := make(chan Message, clientBufferDepth)
	ch <- Message{Kind: KindConnected}

	b.mu.Lock()
	b.clients = append(b.clients, client{id: ClientID(deviceID, hashedKeyPhrase), ch: ch})
	b.mu.Unlock()

	return ch
}

// Remove drops every registered client with the given id. Called when a
// handler's SSE connection ends, so a reconnecting device does not
// accumulate stale channels between liveness sweeps.
func (b *Broadcaster) Remove(deviceID, hashedKeyPhrase string) {
	target := ClientID(deviceID, hashedKeyPhrase)
	b.mu.Lock()
	defer b.mu.Unlock()
	filtered := make([]client, 0, len(b.clients))
	for _, c := range b.clients {
		if c.id != target {
			filtered = append(filtered, c)
		}
	}
	b.clients = filtered
}

// BroadcastTo computes the target client id for each deviceID against the
// given, already hashed key phrase and concurrently delivers data to
// every matching, currently-registered client. Computing the ids cannot
// fail; any individual send failure is reported as SseFailedToSend
// (other sends still proceed).
func (b *Broadcaster) BroadcastTo(deviceIDs []string, hashedKeyPhrase string, kind Kind, data any) error {
	targets := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		targets[ClientID(id, hashedKeyPhrase)] = struct{}{}
	}

	b.mu.Lock()
	snapshot := make([]client, len(b.clients))
	copy(snapshot, b.clients)
	b.mu.Unlock()

	var g errgroup.Group
	for _, c := range snapshot {
		if _, ok := targets[c.id]; !ok {
			continue
		}
		c := c
		g.Go(func() error {
			select {
			case c.ch <- Message{Kind: kind, Data: data}:
				return nil
			default:
				return ilixerrors.New(ilixerrors.SseFailedToSend)
			}
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// pingLoop wakes every 30s, snapshots the registry, concurrently attempts
// a non-blocking Ping send to every client, and replaces the registry
// with only the clients that accepted it. The mutex is only ever held
// long enough to clone or replace the slice, never across a send.
func (b *Broadcaster) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *Broadcaster) sweep() {
	b.mu.Lock()
	snapshot := make([]client, len(b.clients))
	copy(snapshot, b.clients)
	b.mu.Unlock()

	survivors := make([]client, 0, len(snapshot))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range snapshot {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case c.ch <- Message{Kind: KindPing}:
				mu.Lock()
				survivors = append(survivors, c)
				mu.Unlock()
			default:
				b.logger.WithField("client_id", c.id).Debug("dropping stale sse client")
			}
		}()
	}
	wg.Wait()

	b.mu.Lock()
	b.clients = survivors
	b.mu.Unlock()
}
