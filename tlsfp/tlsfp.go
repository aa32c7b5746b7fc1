// Package tlsfp fingerprints TLS clients from their ClientHello. The
// listener records the raw hello bytes before crypto/tls consumes the
// stream, so handlers can tell a real browser stack from an HTTP
// library regardless of the User-Agent it claims.
package tlsfp

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	utls "github.com/refraction-networking/utls"
)

// maxHelloSize bounds the first record read during capture.
const maxHelloSize = 16 * 1024

// Table maps live connections (by remote address) to their fingerprint.
// Entries are removed when the connection closes.
type Table struct {
	mu    sync.RWMutex
	conns map[string]string
}

func NewTable() *Table {
	return &Table{conns: make(map[string]string)}
}

// Lookup returns the fingerprint for a request's RemoteAddr, or "" when
// the connection was not fingerprinted (plain HTTP, or capture failed).
func (t *Table) Lookup(remoteAddr string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conns[remoteAddr]
}

func (t *Table) set(remoteAddr, fp string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[remoteAddr] = fp
}

func (t *Table) remove(remoteAddr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, remoteAddr)
}

// Listener wraps a net.Listener so every accepted connection captures
// its ClientHello into the table before the TLS stack sees it.
type Listener struct {
	net.Listener
	table *Table
}

func NewListener(inner net.Listener, table *Table) *Listener {
	return &Listener{Listener: inner, table: table}
}

func (l *Listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &conn{Conn: c, table: l.table}, nil
}

// conn tees the first TLS record out of the stream, fingerprints it,
// then replays the bytes so the handshake proceeds untouched.
type conn struct {
	net.Conn
	table   *Table
	once    sync.Once
	pending []byte
}

func (c *conn) Read(p []byte) (int, error) {
	c.once.Do(c.capture)
	if len(c.pending) > 0 {
		n := copy(p, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}
	return c.Conn.Read(p)
}

func (c *conn) Close() error {
	c.table.remove(c.RemoteAddr().String())
	return c.Conn.Close()
}

// capture reads the first record and, if it is a handshake record that
// parses as a ClientHello, stores its digest. Whatever was read ends up
// in pending so the stream the TLS stack sees is byte-identical.
func (c *conn) capture() {
	hdr := make([]byte, 5)
	n, err := io.ReadFull(c.Conn, hdr)
	c.pending = hdr[:n]
	if err != nil {
		return
	}

	// 0x16 is a TLS handshake record.
	if hdr[0] != 0x16 {
		return
	}
	size := int(hdr[3])<<8 | int(hdr[4])
	if size <= 0 || size > maxHelloSize {
		return
	}

	body := make([]byte, size)
	n, err = io.ReadFull(c.Conn, body)
	c.pending = append(c.pending, body[:n]...)
	if err != nil {
		return
	}

	if fp := Digest(body); fp != "" {
		c.table.set(c.RemoteAddr().String(), fp)
	}
}

// Digest computes a JA3-style MD5 over a ClientHello handshake message:
// version, cipher suites, supported curves, point formats and ALPN,
// with GREASE values stripped so randomized hellos stay stable.
func Digest(handshake []byte) string {
	hello := utls.UnmarshalClientHello(handshake)
	if hello == nil {
		return ""
	}

	var parts []string
	parts = append(parts, strconv.Itoa(int(hello.Vers)))

	var ciphers []string
	for _, cs := range hello.CipherSuites {
		if isGrease(cs) {
			continue
		}
		ciphers = append(ciphers, strconv.Itoa(int(cs)))
	}
	parts = append(parts, strings.Join(ciphers, "-"))

	var curves []string
	for _, cv := range hello.SupportedCurves {
		if isGrease(uint16(cv)) {
			continue
		}
		curves = append(curves, strconv.Itoa(int(cv)))
	}
	parts = append(parts, strings.Join(curves, "-"))

	var points []string
	for _, pt := range hello.SupportedPoints {
		points = append(points, strconv.Itoa(int(pt)))
	}
	parts = append(parts, strings.Join(points, "-"))
	parts = append(parts, strings.Join(hello.AlpnProtocols, ","))

	sum := md5.Sum([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}

// isGrease reports whether v is a GREASE value (RFC 8701). Clients
// rotate these per connection, so they must not enter the digest.
func isGrease(v uint16) bool {
	return v&0x0f0f == 0x0a0a
}
