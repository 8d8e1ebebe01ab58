// Copyright (c) 2024 Jerzy Dąbrowski
// Based on original work by Thomas Jager, 2009. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//   - Redistributions of source code must retain the above copyright notice, this list of conditions,
//     and the following disclaimer.
//   - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//     and the following disclaimer in the documentation and/or other materials provided with the distribution.
//   - Neither the name of the original authors nor the names of its contributors may be used to endorse
//     or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package ircengine

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding"
	"h12.io/socks"
)

// Transport is the raw-socket collaborator: plain TCP and TLS sockets
// with poll-style readiness. The engine only ever talks to this
// interface.
type Transport interface {
	// PollRead reports whether a read would return data without blocking.
	PollRead() bool
	// PollWrite reports whether a write would not block.
	PollWrite() bool
	// Read behaves like io.Reader but must never block: it is only ever
	// called after PollRead reports true.
	Read(buf []byte) (int, error)
	// Write sends buf in full or returns an error; only ever called
	// after PollWrite reports true.
	Write(buf []byte) (int, error)
	// Close releases the underlying socket.
	Close() error
}

// ProxyConfig configures an optional SOCKS4, SOCKS5, or HTTP CONNECT
// proxy to dial the IRC server through.
type ProxyConfig struct {
	Type     string // "socks4", "socks5", "http"
	Address  string
	Username string
	Password string
}

type socks4Dialer struct {
	dialFunc func(string, string) (net.Conn, error)
}

func (d *socks4Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.dialFunc(network, addr)
}

func buildDialer(proxyCfg *ProxyConfig, localIP string, timeout time.Duration) (proxy.Dialer, error) {
	if proxyCfg == nil {
		var localAddr net.Addr
		if localIP != "" {
			localAddr = &net.TCPAddr{IP: net.ParseIP(localIP), Port: 0}
		}
		return &net.Dialer{LocalAddr: localAddr, Timeout: timeout}, nil
	}

	switch proxyCfg.Type {
	case "socks4":
		dial := socks.Dial(fmt.Sprintf("socks4://%s:%s@%s", proxyCfg.Username, proxyCfg.Password, proxyCfg.Address))
		return &socks4Dialer{dialFunc: dial}, nil
	case "socks5":
		auth := &proxy.Auth{User: proxyCfg.Username, Password: proxyCfg.Password}
		return proxy.SOCKS5("tcp", proxyCfg.Address, auth, proxy.Direct)
	case "http":
		proxyURL, err := url.Parse(fmt.Sprintf("http://%s:%s@%s", proxyCfg.Username, proxyCfg.Password, proxyCfg.Address))
		if err != nil {
			return nil, err
		}
		return proxy.FromURL(proxyURL, proxy.Direct)
	default:
		return nil, fmt.Errorf("ircengine: unsupported proxy type: %s", proxyCfg.Type)
	}
}

// TCPTransport is the default Transport: a plain or TLS-wrapped TCP
// socket, optionally dialed through a SOCKS4/SOCKS5/HTTP proxy, with
// readiness polling emulated via a zero-latency deadline probe (Go's
// runtime-integrated poller means there is no raw poll(2) exposed for a
// net.Conn; this is the idiomatic substitute).
type TCPTransport struct {
	conn net.Conn
	br   *bufio.Reader
	w    io.Writer
}

// DialTCP connects to addr (host:port), optionally through a proxy and/or
// wrapped in TLS, and decodes/encodes the wire through enc (nop if nil).
func DialTCP(addr string, useTLS bool, tlsConfig *tls.Config, proxyCfg *ProxyConfig, localIP string, timeout time.Duration, enc encoding.Encoding) (*TCPTransport, error) {
	dialer, err := buildDialer(proxyCfg, localIP, timeout)
	if err != nil {
		return nil, err
	}

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	if useTLS {
		cfg := tlsConfig
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" && !cfg.InsecureSkipVerify {
			cfg = cfg.Clone()
			cfg.ServerName, _, _ = net.SplitHostPort(addr)
		}
		tlsConn := tls.Client(conn, cfg)
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			return nil, err
		}
		conn = tlsConn
	}

	if enc == nil {
		enc = encoding.Nop
	}

	r := enc.NewDecoder().Reader(conn)
	w := enc.NewEncoder().Writer(conn)

	return &TCPTransport{
		conn: conn,
		br:   bufio.NewReaderSize(r, MsgMax),
		w:    w,
	}, nil
}

// PollRead implements Transport. It is a zero-latency readiness probe
// built on net.Conn's deadline mechanism: set the read deadline to "now",
// attempt to peek a byte, and interpret a timeout as "not ready" without
// ever blocking the caller's tick.
func (t *TCPTransport) PollRead() bool {
	if t.conn == nil {
		return false
	}
	_ = t.conn.SetReadDeadline(time.Now())
	_, err := t.br.Peek(1)
	_ = t.conn.SetReadDeadline(time.Time{})
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return false
		}
		// A non-timeout error (EOF, reset, ...) still counts as "ready":
		// the subsequent Read will surface it to the caller.
		return true
	}
	return true
}

// PollWrite implements Transport. Outbound readiness on a connected TCP
// socket is the common case; a full send buffer is reported by Write
// returning an error, not by this probe.
func (t *TCPTransport) PollWrite() bool {
	return t.conn != nil
}

// Read implements Transport.
func (t *TCPTransport) Read(buf []byte) (int, error) {
	return t.br.Read(buf)
}

// Write implements Transport.
func (t *TCPTransport) Write(buf []byte) (int, error) {
	_ = t.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	n, err := t.w.Write(buf)
	_ = t.conn.SetWriteDeadline(time.Time{})
	return n, err
}

// Close implements Transport.
func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
