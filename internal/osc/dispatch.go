package osc

import (
	"log/slog"

	"github.com/hypebeast/go-osc/osc"
)

// dispatcher routes messages by exact address. Incoming addresses are never
// treated as patterns, and a panicking handler only loses its own message.
type dispatcher struct {
	handlers map[string]func(*osc.Message)
}

func newDispatcher() *dispatcher {
	return &dispatcher{handlers: make(map[string]func(*osc.Message))}
}

func (d *dispatcher) handle(address string, fn func(*osc.Message)) {
	d.handlers[address] = fn
}

// Dispatch runs handlers synchronously, bundle contents in order.
func (d *dispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		d.dispatchMessage(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			d.dispatchMessage(m)
		}
		for _, b := range p.Bundles {
			d.Dispatch(b)
		}
	}
}

func (d *dispatcher) dispatchMessage(msg *osc.Message) {
	fn, ok := d.handlers[msg.Address]
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("osc handler panicked", "address", msg.Address, "panic", r)
		}
	}()
	fn(msg)
}

// parse decodes one datagram. Malformed input yields an error, never a panic.
func parse(data []byte) (pkt osc.Packet, err error) {
	defer func() {
		if r := recover(); r != nil {
			pkt, err = nil, errMalformed
		}
	}()
	pkt, err = osc.ParsePacket(string(data))
	if err == nil && pkt == nil {
		err = errMalformed
	}
	return pkt, err
}
