package bridge

import (
	"context"
	"strconv"
	"sync"

	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/navigate"
)

// BrowserRouter is a navigate.Router that forwards every operation to the
// browser client as a command message. Push and Replace wait for the
// client's ack; Back, Forward and Refresh return once the command is sent.
type BrowserRouter struct {
	send func(ServerMessage) error

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]chan error
	closed  bool
	done    chan struct{}
}

var _ navigate.Router = (*BrowserRouter)(nil)

// NewBrowserRouter creates a router that writes commands with send.
func NewBrowserRouter(send func(ServerMessage) error) *BrowserRouter {
	return &BrowserRouter{
		send:    send,
		pending: make(map[uint64]chan error),
		done:    make(chan struct{}),
	}
}

// Push implements navigate.Router.
func (r *BrowserRouter) Push(ctx context.Context, path string) error {
	return r.call(ctx, navigate.OpPush, path)
}

// Replace implements navigate.Router.
func (r *BrowserRouter) Replace(ctx context.Context, path string) error {
	return r.call(ctx, navigate.OpReplace, path)
}

// Back implements navigate.Router.
func (r *BrowserRouter) Back() error {
	_, _, err := r.command(navigate.OpBack, "", false)
	return err
}

// Forward implements navigate.Router.
func (r *BrowserRouter) Forward() error {
	_, _, err := r.command(navigate.OpForward, "", false)
	return err
}

// Refresh implements navigate.Router.
func (r *BrowserRouter) Refresh() error {
	_, _, err := r.command(navigate.OpRefresh, "", false)
	return err
}

// Pending returns the number of commands waiting for an ack.
func (r *BrowserRouter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *BrowserRouter) call(ctx context.Context, op navigate.Op, path string) error {
	seq, ch, err := r.command(op, path, true)
	if err != nil {
		return err
	}

	// An ack delivered during send is already buffered in ch.
	select {
	case err := <-ch:
		return err
	default:
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		r.forget(seq)
		return ctx.Err()
	case <-r.done:
		return navErrors.New("N062").WithField("op", string(op)).WithField("path", path)
	}
}

// command assigns a sequence number and sends the command. With wait set,
// a pending slot is registered before the send and returned, so a fast ack
// lands in the channel the caller waits on.
func (r *BrowserRouter) command(op navigate.Op, path string, wait bool) (uint64, chan error, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, nil, navErrors.New("N062").WithField("op", string(op))
	}
	r.seq++
	seq := r.seq
	var ch chan error
	if wait {
		ch = make(chan error, 1)
		r.pending[seq] = ch
	}
	r.mu.Unlock()

	if err := r.send(ServerMessage{Type: MsgCommand, Seq: seq, Op: string(op), Path: path}); err != nil {
		r.forget(seq)
		return 0, nil, navErrors.New("N060").Wrap(err)
	}
	return seq, ch, nil
}

// ack settles the command with the given sequence number. An empty errMsg
// means the client completed it.
func (r *BrowserRouter) ack(seq uint64, errMsg string) {
	r.mu.Lock()
	ch, ok := r.pending[seq]
	delete(r.pending, seq)
	r.mu.Unlock()
	if !ok {
		return
	}

	var err error
	if errMsg != "" {
		err = navErrors.New("N063").WithDetail(errMsg).WithField("seq", strconv.FormatUint(seq, 10))
	}
	ch <- err
}

func (r *BrowserRouter) forget(seq uint64) {
	r.mu.Lock()
	delete(r.pending, seq)
	r.mu.Unlock()
}

// close fails every waiting command and rejects later ones.
func (r *BrowserRouter) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.pending = make(map[uint64]chan error)
	close(r.done)
}

// BrowserPlatform is a navigate.Platform fed by platform messages from the
// browser client.
type BrowserPlatform struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(navigate.PlatformEvent)
}

var _ navigate.Platform = (*BrowserPlatform)(nil)

// NewBrowserPlatform creates a platform with no listeners.
func NewBrowserPlatform() *BrowserPlatform {
	return &BrowserPlatform{listeners: make(map[int]func(navigate.PlatformEvent))}
}

// Listen implements navigate.Platform.
func (p *BrowserPlatform) Listen(fn func(navigate.PlatformEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// emit delivers ev to every listener registered at the time of the call.
func (p *BrowserPlatform) emit(ev navigate.PlatformEvent) {
	p.mu.Lock()
	fns := make([]func(navigate.PlatformEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
