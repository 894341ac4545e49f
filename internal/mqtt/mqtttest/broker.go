// Package mqtttest runs a minimal in-process MQTT 3.1.1 broker for tests. It
// accepts every client, acknowledges publishes and records them; it does not
// route messages to subscribers.
package mqtttest

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
)

// Message is one PUBLISH received by the broker.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type Broker struct {
	ln       net.Listener
	messages chan Message

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewBroker listens on a free loopback port and stops when t finishes.
func NewBroker(t testing.TB) *Broker {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	b := &Broker{
		ln:       ln,
		messages: make(chan Message, 16),
		conns:    make(map[net.Conn]struct{}),
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.serve()
	t.Cleanup(b.Close)
	return b
}

func (b *Broker) Host() string {
	host, _, _ := net.SplitHostPort(b.ln.Addr().String())
	return host
}

func (b *Broker) Port() int {
	_, port, _ := net.SplitHostPort(b.ln.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Messages delivers publishes in arrival order.
func (b *Broker) Messages() <-chan Message {
	return b.messages
}

func (b *Broker) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		_ = b.ln.Close()
		b.mu.Lock()
		for c := range b.conns {
			_ = c.Close()
		}
		b.mu.Unlock()
		b.wg.Wait()
	})
}

func (b *Broker) serve() {
	defer b.wg.Done()
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		b.mu.Lock()
		select {
		case <-b.done:
			b.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		b.conns[conn] = struct{}{}
		b.wg.Add(1)
		b.mu.Unlock()
		go b.handle(conn)
	}
}

func (b *Broker) handle(conn net.Conn) {
	defer b.wg.Done()
	defer func() {
		b.mu.Lock()
		delete(b.conns, conn)
		b.mu.Unlock()
		_ = conn.Close()
	}()

	r := bufio.NewReader(conn)
	for {
		header, body, err := readPacket(r)
		if err != nil {
			return
		}
		var reply []byte
		switch header >> 4 {
		case 1: // CONNECT
			reply = []byte{0x20, 0x02, 0x00, 0x00}
		case 3: // PUBLISH
			msg, id, err := parsePublish(header, body)
			if err != nil {
				return
			}
			switch msg.QoS {
			case 1:
				reply = []byte{0x40, 0x02, id[0], id[1]}
			case 2:
				reply = []byte{0x50, 0x02, id[0], id[1]}
			}
			select {
			case b.messages <- msg:
			case <-b.done:
				return
			}
		case 6: // PUBREL
			if len(body) < 2 {
				return
			}
			reply = []byte{0x70, 0x02, body[0], body[1]}
		case 12: // PINGREQ
			reply = []byte{0xD0, 0x00}
		case 14: // DISCONNECT
			return
		}
		if reply != nil {
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}
	}
}

func readPacket(r *bufio.Reader) (byte, []byte, error) {
	header, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	length, shift := 0, 0
	for i := 0; ; i++ {
		if i == 4 {
			return 0, nil, errors.New("mqtttest: malformed remaining length")
		}
		c, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		length |= int(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			break
		}
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return header, body, nil
}

func parsePublish(header byte, body []byte) (Message, [2]byte, error) {
	var id [2]byte
	if len(body) < 2 {
		return Message{}, id, errors.New("mqtttest: short publish")
	}
	n := int(binary.BigEndian.Uint16(body))
	if len(body) < 2+n {
		return Message{}, id, errors.New("mqtttest: short topic")
	}
	msg := Message{
		Topic:    string(body[2 : 2+n]),
		QoS:      (header >> 1) & 0x03,
		Retained: header&0x01 == 1,
	}
	rest := body[2+n:]
	if msg.QoS > 0 {
		if len(rest) < 2 {
			return Message{}, id, errors.New("mqtttest: missing packet id")
		}
		copy(id[:], rest[:2])
		rest = rest[2:]
	}
	msg.Payload = append([]byte(nil), rest...)
	return msg, id, nil
}
