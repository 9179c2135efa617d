package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// MaxDatagram is the largest UDP payload accepted.
const MaxDatagram = 65535

// Source yields inbound datagrams without blocking.
type Source interface {
	// Poll returns the next pending datagram, or ok=false if none is queued.
	Poll() (pkt []byte, ok bool)
}

// UDP is a Source backed by a bound UDP socket. A reader goroutine copies each
// datagram into a bounded queue; datagrams arriving while the queue is full are
// discarded and counted.
type UDP struct {
	conn     *net.UDPConn
	queue    chan []byte
	overflow atomic.Uint64
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// ListenUDP binds addr (e.g. ":7000") and starts reading.
func ListenUDP(addr string, depth int, logger zerolog.Logger) (*UDP, error) {
	la, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", la)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if depth <= 0 {
		depth = 1
	}
	u := &UDP{
		conn:  conn,
		queue: make(chan []byte, depth),
		log:   logger.With().Str("addr", conn.LocalAddr().String()).Logger(),
	}
	u.wg.Add(1)
	go u.readLoop()
	return u, nil
}

func (u *UDP) readLoop() {
	defer u.wg.Done()
	buf := make([]byte, MaxDatagram)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			u.log.Debug().Err(err).Msg("udp read")
			continue
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		select {
		case u.queue <- pkt:
		default:
			u.overflow.Add(1)
		}
	}
}

func (u *UDP) Poll() ([]byte, bool) {
	select {
	case pkt := <-u.queue:
		return pkt, true
	default:
		return nil, false
	}
}

// Overflow returns how many datagrams were discarded because the queue was full.
func (u *UDP) Overflow() uint64 { return u.overflow.Load() }

func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

func (u *UDP) Close() error {
	err := u.conn.Close()
	u.wg.Wait()
	return err
}
