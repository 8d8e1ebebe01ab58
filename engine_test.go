package ircengine

import "testing"

// fakeTransport is an in-memory Transport double: Feed() queues bytes
// for the next Read, and written captures everything handed to Write.
type fakeTransport struct {
	readable     bool
	writable     bool
	pending      []byte
	written      []byte
	closed       bool
	closedSignal bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{writable: true}
}

func (f *fakeTransport) Feed(s string) {
	f.pending = append(f.pending, []byte(s)...)
	f.readable = true
}

// SignalRemoteClose makes the next Read report a zero-byte read, the
// transport's way of surfacing a closed connection.
func (f *fakeTransport) SignalRemoteClose() {
	f.closedSignal = true
}

func (f *fakeTransport) PollRead() bool {
	if f.closedSignal {
		return true
	}
	return f.readable && len(f.pending) > 0
}

func (f *fakeTransport) PollWrite() bool { return f.writable }

func (f *fakeTransport) Read(buf []byte) (int, error) {
	if f.closedSignal {
		return 0, nil
	}
	n := copy(buf, f.pending)
	f.pending = f.pending[n:]
	if len(f.pending) == 0 {
		f.readable = false
	}
	return n, nil
}

func (f *fakeTransport) Write(buf []byte) (int, error) {
	f.written = append(f.written, buf...)
	return len(buf), nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func testEngine(t *testing.T, transport Transport) *Engine {
	t.Helper()
	cfg := BotConfig{
		Host:     "irc.example.net",
		Port:     "6667",
		Ident:    "bot",
		RealName: "Test Bot",
		Master:   "owner",
		Nicks:    []string{"nick0", "nick1", "nick2"},
		Channels: []string{"#chan"},
	}
	clockMs := int64(0)
	e, err := NewEngine(cfg,
		WithTransport(transport),
		WithClock(func() int64 { return clockMs }),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return e
}

func tickLine(t *testing.T, e *Engine, ft *fakeTransport, line string) (Status, error) {
	t.Helper()
	ft.Feed(line + "\r\n")
	status, err := e.Tick()
	return status, err
}

// TestPingPong checks that a PING line gets an immediate PONG with the
// same token, regardless of connection state.
func TestPingPong(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :hi"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	ft.written = nil

	status, err := tickLine(t, e, ft, "PING :abc123")
	if err != nil || !status.Continue() {
		t.Fatalf("status=%v err=%v", status, err)
	}
	if string(ft.written) != "PONG :abc123\r\n" {
		t.Fatalf("written = %q", ft.written)
	}
}

// TestHandshakeEmission checks that the connection's first line only
// advances NONE->CONNECTED; the second server line (run against
// that now-CONNECTED state) is what emits the NICK/USER handshake and
// advances to LISTENING.
func TestHandshakeEmission(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :*** looking up your hostname"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.State != StateConnected {
		t.Fatalf("state after first line = %v, want CONNECTED", e.State)
	}
	if len(ft.written) != 0 {
		t.Fatalf("expected no wire output yet, got %q", ft.written)
	}

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :*** checking ident"); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	want := "NICK nick0\r\nUSER bot irc.example.net test: Test Bot\r\n"
	if string(ft.written) != want {
		t.Fatalf("written = %q, want %q", ft.written, want)
	}
	if e.State != StateListening {
		t.Fatalf("state = %v, want LISTENING", e.State)
	}
}

// advanceToJoined drives engine e through NONE -> CONNECTED -> LISTENING
// -> JOINED -> LISTENING(joined), the minimum four server lines the
// state table needs to complete registration and channel join.
func advanceToJoined(t *testing.T, e *Engine, ft *fakeTransport) {
	t.Helper()
	for _, line := range []string{
		":irc.example.net NOTICE * :*** looking up your hostname",
		":irc.example.net NOTICE * :*** checking ident",
		":irc.example.net 001 nick0 :Welcome",
		":irc.example.net 366 nick0 #chan :End of /NAMES list.",
	} {
		if _, err := tickLine(t, e, ft, line); err != nil {
			t.Fatalf("Tick(%q): %v", line, err)
		}
	}
}

// TestStateProgressionToJoin checks that the fixed sequence of server
// lines drives the engine all the way from NONE to LISTENING with
// Joined set and exactly one join callback fired. The 001 reply both
// sets REGISTERED (the pre-hook) and, in that same tick, runs the
// REGISTERED table row that sends JOIN and advances to JOINED.
func TestStateProgressionToJoin(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)

	joinCalls := 0
	e.SetCallback(CallbackJoin, func(e *Engine, msg IrcMessage) {
		joinCalls++
	})

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :hi"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.State != StateConnected {
		t.Fatalf("state after first line = %v, want CONNECTED", e.State)
	}

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :still here"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.State != StateListening {
		t.Fatalf("state after second line = %v, want LISTENING", e.State)
	}

	if _, err := tickLine(t, e, ft, ":irc.example.net 001 nick0 :Welcome"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.State != StateJoined {
		t.Fatalf("state after 001 = %v, want JOINED", e.State)
	}

	if _, err := tickLine(t, e, ft, ":irc.example.net 366 nick0 #chan :End of /NAMES list."); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.State != StateListening {
		t.Fatalf("state after 366 = %v, want LISTENING", e.State)
	}
	if !e.Joined {
		t.Fatalf("expected Joined true")
	}
	if joinCalls != 1 {
		t.Fatalf("joinCalls = %d, want 1", joinCalls)
	}
}

// TestNickCollisionRetry checks that a 433 while CONNECTED bumps
// NickAttempt, and the CONNECTED table row (now primed
// by the pre-hook in the same tick) immediately retries with the next
// candidate nickname.
func TestNickCollisionRetry(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :hi"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.currentNick() != "nick0" {
		t.Fatalf("initial nick = %q", e.currentNick())
	}

	ft.written = nil
	if _, err := tickLine(t, e, ft, ":irc.example.net 433 * nick0 :Nickname is already in use."); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if e.NickAttempt != 1 {
		t.Fatalf("NickAttempt = %d, want 1", e.NickAttempt)
	}
	if e.currentNick() != "nick1" {
		t.Fatalf("nick after retry = %q, want nick1", e.currentNick())
	}
	want := "NICK nick1\r\nUSER bot irc.example.net test: Test Bot\r\n"
	if string(ft.written) != want {
		t.Fatalf("written = %q, want %q", ft.written, want)
	}
	if e.State != StateListening {
		t.Fatalf("state = %v, want LISTENING", e.State)
	}
}

// TestNickAttemptsExhaustedIsFatal checks the terminal collision case.
// NickAttempt only blocks a further retry once it has already reached
// NickAttempts from prior collisions, so the (NickAttempts+1)-th 433 is
// the one that is fatal.
func TestNickAttemptsExhaustedIsFatal(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)

	if _, err := tickLine(t, e, ft, ":irc.example.net NOTICE * :hi"); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	for i := 0; i <= NickAttempts; i++ {
		status, err := tickLine(t, e, ft, ":irc.example.net 433 * nick :Nickname is already in use.")
		if i < NickAttempts {
			if err != nil {
				t.Fatalf("unexpected error on attempt %d: %v", i, err)
			}
			continue
		}
		if status != StatusFatal {
			t.Fatalf("final attempt status = %v, want StatusFatal", status)
		}
		if err != ErrNickAttemptsExhausted {
			t.Fatalf("final attempt err = %v, want ErrNickAttemptsExhausted", err)
		}
	}
}

// TestSelfEchoSuppressed checks that a line whose origin nick matches
// the bot's own current candidate nickname never reaches the
// message callback, while a line from anyone else does.
func TestSelfEchoSuppressed(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	msgCalls := 0
	e.SetCallback(CallbackMsg, func(e *Engine, msg IrcMessage) {
		msgCalls++
	})

	if _, err := tickLine(t, e, ft, ":nick0!bot@host PRIVMSG #chan :echo of my own line"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if msgCalls != 0 {
		t.Fatalf("self-echo reached callback: msgCalls = %d", msgCalls)
	}

	if _, err := tickLine(t, e, ft, ":someoneelse!user@host PRIVMSG #chan :hello"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if msgCalls != 1 {
		t.Fatalf("expected a real message to reach the callback, msgCalls = %d", msgCalls)
	}
}

// TestJoinVerbUpdatesNickList covers the dispatcher's built-in JOIN
// bookkeeping once the engine is listening for user traffic.
func TestJoinVerbUpdatesNickList(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	nicks, ok := e.Nicks.(*BasicNickSet)
	if !ok {
		t.Fatalf("expected default BasicNickSet")
	}

	if _, err := tickLine(t, e, ft, ":newperson!user@host JOIN #chan :newperson"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !nicks.Has("#chan", "newperson") {
		t.Fatalf("expected newperson registered in #chan")
	}
}

func TestRemoteClosedStatus(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)

	ft.SignalRemoteClose()
	status, err := e.Tick()
	if status != StatusRemoteClosed {
		t.Fatalf("status = %v, want StatusRemoteClosed", status)
	}
	if err != ErrRemoteClosed {
		t.Fatalf("err = %v, want ErrRemoteClosed", err)
	}
}
