// Package web implements a display driver that serves the emulator
// over WebSockets: connected clients receive brotli-compressed frames
// and may send key states back. The first client to claim the
// controls becomes the player; everyone else spectates.
package web

import (
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"sync"
	"syscall"

	"github.com/cespare/xxhash"
	"github.com/google/brotli/go/cbrotli"
	"github.com/gorilla/websocket"
	"golang.org/x/sys/unix"

	"github.com/thelolagemann/go-minimon/pkg/display"
)

func init() {
	display.Install("web", &driver{addr: ":8090"})
}

// message types of the wire protocol
const (
	msgFrame uint8 = iota
	msgStatus
	msgInputs
	msgClaim
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type driver struct {
	addr string
	emu  display.Emulator

	mu      sync.Mutex
	clients map[*client]bool
	player  *client

	lastFrame uint64

	server *http.Server
}

func (d *driver) Initialize(emu display.Emulator) {
	d.emu = emu
	d.clients = map[*client]bool{}
}

func (d *driver) Start(frames <-chan []byte) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.serveClient)
	d.server = &http.Server{Handler: mux}

	// allow quick restarts of the hub on the same port
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
		},
	}
	listener, err := lc.Listen(context.Background(), "tcp", d.addr)
	if err != nil {
		return err
	}

	go func() {
		_ = d.server.Serve(listener)
	}()

	for frame := range frames {
		d.broadcast(frame)
	}
	return d.server.Close()
}

func (d *driver) serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newClient(d, conn)

	d.mu.Lock()
	d.clients[c] = true
	d.mu.Unlock()

	go c.writePump()
	go c.readPump()

	c.send <- []byte{msgStatus, statusByte(d.emu.Paused())}
}

// broadcast compresses a frame and fans it out, skipping frames
// identical to the previous one.
func (d *driver) broadcast(frame []byte) {
	hash := xxhash.Sum64(frame)
	if hash == d.lastFrame {
		return
	}
	d.lastFrame = hash

	compressed, err := cbrotli.Encode(frame, cbrotli.WriterOptions{Quality: 4})
	if err != nil {
		return
	}

	packet := make([]byte, 5, 5+len(compressed))
	packet[0] = msgFrame
	binary.LittleEndian.PutUint32(packet[1:], uint32(len(frame)))
	packet = append(packet, compressed...)

	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.send <- packet:
		default:
			// drop frames to slow clients rather than stalling
		}
	}
}

func (d *driver) disconnect(c *client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == c {
		d.player = nil
	}
	delete(d.clients, c)
	close(c.send)
}

// handle applies one inbound packet from a client.
func (d *driver) handle(c *client, packet []byte) {
	if len(packet) == 0 {
		return
	}

	switch packet[0] {
	case msgClaim:
		d.mu.Lock()
		if d.player == nil {
			d.player = c
		}
		d.mu.Unlock()
	case msgInputs:
		if len(packet) < 3 {
			return
		}
		d.mu.Lock()
		isPlayer := d.player == c
		d.mu.Unlock()
		if isPlayer {
			d.emu.UpdateInputs(binary.LittleEndian.Uint16(packet[1:]) & 0x1FF)
		}
	}
}

func (d *driver) Stop() error {
	if d.server != nil {
		return d.server.Close()
	}
	return nil
}

func statusByte(paused bool) uint8 {
	if paused {
		return 1
	}
	return 0
}
