package rcon

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

type fakeServer struct {
	listener net.Listener
	password string
	reply    func(command string) string
	// preamble sends an empty response before the login result.
	preamble bool
	// stall holds the connection without answering the command.
	stall bool
}

func startFakeServer(t *testing.T, password string, reply func(string) string, opts ...func(*fakeServer)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{listener: ln, password: password, reply: reply}
	for _, opt := range opts {
		opt(s)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) send(conn net.Conn, p Packet) {
	buf, _ := p.MarshalBinary()
	_, _ = conn.Write(buf)
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	login, err := ReadPacket(conn)
	if err != nil || login.Type != TypeAuth {
		return
	}
	if s.preamble {
		s.send(conn, Packet{ID: login.ID, Type: TypeResponse})
	}
	if login.Payload != s.password {
		s.send(conn, Packet{ID: authFailedID, Type: TypeAuthResponse})
		return
	}
	s.send(conn, Packet{ID: login.ID, Type: TypeAuthResponse})

	request, err := ReadPacket(conn)
	if err != nil || request.Type != TypeExec {
		return
	}
	if s.stall {
		_, _ = conn.Read(make([]byte, 1))
		return
	}
	s.send(conn, Packet{ID: request.ID, Type: TypeResponse, Payload: s.reply(request.Payload)})
}

func (s *fakeServer) config(password string) Configuration {
	addr := s.listener.Addr().(*net.TCPAddr)
	return Configuration{Host: "127.0.0.1", Port: uint16(addr.Port), Password: password, Timeout: time.Second}
}

func TestPacketEncoding(t *testing.T) {
	buf, err := Packet{ID: 7, Type: TypeExec, Payload: "list"}.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := []byte{
		14, 0, 0, 0,
		7, 0, 0, 0,
		2, 0, 0, 0,
		'l', 'i', 's', 't',
		0, 0,
	}
	if !bytes.Equal(buf, want) {
		t.Fatalf("unexpected bytes: %v", buf)
	}

	p, err := ReadPacket(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if p.ID != 7 || p.Type != TypeExec || p.Payload != "list" {
		t.Fatalf("unexpected packet: %+v", p)
	}
}

func TestPacketRejectsOversizedCommand(t *testing.T) {
	_, err := Packet{Type: TypeExec, Payload: string(make([]byte, MaxRequestPayload+1))}.MarshalBinary()
	if !errors.Is(err, ErrCommandTooLong) {
		t.Fatalf("expected ErrCommandTooLong, got %v", err)
	}
}

func TestExecRejectsOversizedCommandBeforeDialing(t *testing.T) {
	client := NewClient(Configuration{Host: "127.0.0.1", Port: 1, Password: "pw", Timeout: time.Second}, nil)
	_, err := client.Exec(context.Background(), strings.Repeat("a", MaxRequestPayload+1))
	if !errors.Is(err, ErrCommandTooLong) {
		t.Fatalf("expected ErrCommandTooLong, got %v", err)
	}
}

func TestReadPacketValidates(t *testing.T) {
	short := []byte{4, 0, 0, 0, 0, 0, 0, 0}
	if _, err := ReadPacket(bytes.NewReader(short)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for short packet, got %v", err)
	}
	invalid := []byte{11, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0xff, 0, 0}
	if _, err := ReadPacket(bytes.NewReader(invalid)); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode for invalid utf-8, got %v", err)
	}
}

func TestClientExec(t *testing.T) {
	server := startFakeServer(t, "secret", func(command string) string {
		return "§6ran " + command
	}, func(s *fakeServer) { s.preamble = true })
	client := NewClient(server.config("secret"), nil)

	resp, err := client.Exec(context.Background(), "list")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if resp.Payload != "§6ran list" {
		t.Fatalf("unexpected payload %q", resp.Payload)
	}
	if resp.ID <= 0 {
		t.Fatalf("request ids must be positive, got %d", resp.ID)
	}
}

func TestClientAuthenticationFailure(t *testing.T) {
	server := startFakeServer(t, "secret", func(string) string { return "" })
	client := NewClient(server.config("wrong"), nil)

	if _, err := client.Exec(context.Background(), "list"); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestClientConnectionFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	client := NewClient(Configuration{Host: "127.0.0.1", Port: uint16(port), Timeout: time.Second}, nil)
	if _, err := client.Exec(context.Background(), "list"); !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	server := startFakeServer(t, "secret", func(string) string { return "" }, func(s *fakeServer) { s.stall = true })
	cfg := server.config("secret")
	cfg.Timeout = 100 * time.Millisecond
	client := NewClient(cfg, nil)

	start := time.Now()
	_, err := client.Exec(context.Background(), "list")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestConfigurationAddress(t *testing.T) {
	cfg := Configuration{Host: "mc.example.com", Port: 25575}
	if got := cfg.Address(); got != "mc.example.com:"+strconv.Itoa(25575) {
		t.Fatalf("unexpected address %q", got)
	}
	if NewClient(cfg, nil).cfg.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout")
	}
}
