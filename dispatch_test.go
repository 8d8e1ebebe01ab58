package ircengine

import (
	"errors"
	"testing"
)

func TestPartRemovesNick(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	if _, err := tickLine(t, e, ft, ":someone!user@host JOIN #chan :someone"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	nicks := e.Nicks.(*BasicNickSet)
	if !nicks.Has("#chan", "someone") {
		t.Fatalf("expected someone registered after JOIN")
	}

	if _, err := tickLine(t, e, ft, ":someone!user@host PART #chan :bye"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if nicks.Has("#chan", "someone") {
		t.Fatalf("expected someone removed after PART")
	}
}

func TestQuitRemovesNickEverywhere(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	if _, err := tickLine(t, e, ft, ":someone!user@host JOIN #chan :someone"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, err := tickLine(t, e, ft, ":someone!user@host QUIT * :bye"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	nicks := e.Nicks.(*BasicNickSet)
	if nicks.Has("#chan", "someone") {
		t.Fatalf("expected someone removed after QUIT")
	}
}

func TestNickChangeMovesRegistration(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	if _, err := tickLine(t, e, ft, ":oldname!user@host JOIN #chan :oldname"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, err := tickLine(t, e, ft, ":oldname!user@host NICK * :newname"); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	nicks := e.Nicks.(*BasicNickSet)
	if nicks.Has("#chan", "oldname") {
		t.Fatalf("expected oldname removed after NICK change")
	}
	if !nicks.Has("#chan", "newname") {
		t.Fatalf("expected newname registered after NICK change")
	}
}

func TestMasterOnlyCommandRejectsNonMaster(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	called := false
	e.AddCommand("shutdown", CmdFlagMaster, 1, func(data CmdData, args []string) error {
		called = true
		return nil
	})

	if _, err := tickLine(t, e, ft, ":intruder!user@host PRIVMSG #chan :!shutdown"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if called {
		t.Fatalf("master-only command ran for a non-master nick")
	}

	if _, err := tickLine(t, e, ft, ":owner!user@host PRIVMSG #chan :!shutdown"); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !called {
		t.Fatalf("expected master-only command to run for the master nick")
	}
}

func TestCommandErrorIsNonFatal(t *testing.T) {
	ft := newFakeTransport()
	e := testEngine(t, ft)
	advanceToJoined(t, e, ft)

	e.AddCommand("boom", CmdFlagNone, 1, func(data CmdData, args []string) error {
		return errors.New("boom")
	})

	ft.Feed(":owner!user@host PRIVMSG #chan :!boom\r\n")
	status, err := e.Tick()
	if status != StatusCommandError {
		t.Fatalf("status = %v, want StatusCommandError", status)
	}
	if !status.Continue() {
		t.Fatalf("StatusCommandError must be non-terminal, Continue() returned false")
	}
	if err != nil {
		t.Fatalf("Tick should not itself return an error, got %v", err)
	}
}
