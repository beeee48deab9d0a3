package osc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/hypebeast/go-osc/osc"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/store"
)

// Listen binds the control socket on loopback. Port 0 picks a free port.
func Listen(port int) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp", net.JoinHostPort(controlHost, strconv.Itoa(port)))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeControlBindFailed, "bind control socket").
			WithMetadata("port", strconv.Itoa(port))
	}
	return conn, nil
}

// Control applies avatar parameter changes to the runtime stores.
type Control struct {
	state *store.Store
	cfg   *store.Store
	conn  net.PacketConn
	d     *dispatcher

	started  atomic.Bool
	closing  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewControl wires handlers for MuteSelf and every config key onto conn.
// Any other address is ignored.
func NewControl(conn net.PacketConn, state, cfg *store.Store) (*Control, error) {
	c := &Control{
		state: state,
		cfg:   cfg,
		conn:  conn,
		done:  make(chan struct{}),
	}

	c.d = newDispatcher()
	c.d.handle(MuteSelfAddress, c.handleMute)
	for _, key := range cfg.Keys() {
		c.d.handle(ConfigAddress(key), func(msg *osc.Message) { c.handleConfig(key, msg) })
	}
	return c, nil
}

// Addr returns the bound control address.
func (c *Control) Addr() net.Addr { return c.conn.LocalAddr() }

// Port returns the bound UDP port.
func (c *Control) Port() int {
	if a, ok := c.conn.LocalAddr().(*net.UDPAddr); ok {
		return a.Port
	}
	return 0
}

// Serve reads and dispatches datagrams one at a time, in arrival order, until
// Shutdown or ctx cancellation. Malformed datagrams are dropped.
func (c *Control) Serve(ctx context.Context) error {
	c.started.Store(true)
	defer close(c.done)

	stop := context.AfterFunc(ctx, func() { _ = c.Shutdown() })
	defer stop()

	slog.Info("control server listening", "addr", c.Addr())
	buf := make([]byte, maxPacketSize)
	for {
		n, _, err := c.conn.ReadFrom(buf)
		if err != nil {
			if c.closing.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return apperrors.Wrap(err, apperrors.CodeInternal, "control server stopped")
		}
		pkt, err := parse(buf[:n])
		if err != nil {
			slog.Debug("dropping malformed osc packet", "error", err)
			continue
		}
		c.d.Dispatch(pkt)
	}
}

// Shutdown closes the socket and waits for Serve to return.
func (c *Control) Shutdown() error {
	var err error
	c.stopOnce.Do(func() {
		c.closing.Store(true)
		if cerr := c.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	if c.started.Load() {
		<-c.done
	}
	return err
}

func (c *Control) handleMute(msg *osc.Message) {
	if len(msg.Arguments) == 0 {
		return
	}
	if err := c.state.Set(store.KeyCaptureMuted, msg.Arguments[0]); err != nil {
		slog.Warn("ignoring mute update", "value", msg.Arguments[0], "error", err)
		return
	}
	slog.Info("mute changed", "muted", c.state.Bool(store.KeyCaptureMuted))
}

func (c *Control) handleConfig(key string, msg *osc.Message) {
	if !c.cfg.Bool(store.KeyAllowOSCControl) {
		slog.Debug("osc control disabled, ignoring", "key", key)
		return
	}
	if len(msg.Arguments) == 0 {
		return
	}
	v := msg.Arguments[0]
	if err := c.cfg.Set(key, v); err != nil {
		slog.Warn("ignoring config update", "key", key, "value", fmt.Sprint(v), "error", err)
		return
	}
	slog.Info("config changed over osc", "key", key, "value", v)
}
