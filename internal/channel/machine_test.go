package channel

import (
	"errors"
	"testing"
)

func hasEffect(effects []effectKind, want effectKind) bool {
	for _, fx := range effects {
		if fx == want {
			return true
		}
	}
	return false
}

func TestTransition_ConnectFromDisconnected(t *testing.T) {
	s := machineState{state: StateDisconnected}

	next, effects := transition(s, event{kind: evConnectRequested}, 3)

	if next.state != StateConnecting {
		t.Fatalf("expected connecting, got %s", next.state)
	}
	if next.seq != s.seq+1 {
		t.Fatalf("expected new attempt seq, got %d", next.seq)
	}
	if !hasEffect(effects, fxDial) || !hasEffect(effects, fxArmConnectTimer) {
		t.Fatalf("expected dial+timer effects, got %v", effects)
	}
}

func TestTransition_ConnectCoalescedWhileInFlight(t *testing.T) {
	s := machineState{state: StateConnecting, seq: 1}

	next, effects := transition(s, event{kind: evConnectRequested}, 3)

	if next != s || effects != nil {
		t.Fatalf("overlapping connect must be a no-op, got %+v %v", next, effects)
	}
}

func TestTransition_DialSucceededResetsAttempts(t *testing.T) {
	s := machineState{state: StateConnecting, seq: 2, attempts: 2, lastErr: errors.New("x")}

	next, effects := transition(s, event{kind: evDialSucceeded, seq: 2}, 3)

	if next.state != StateConnected || next.attempts != 0 || next.lastErr != nil {
		t.Fatalf("unexpected state after success: %+v", next)
	}
	if !hasEffect(effects, fxSubscribe) || !hasEffect(effects, fxCancelConnectTimer) {
		t.Fatalf("expected subscribe+cancel effects, got %v", effects)
	}
}

func TestTransition_StaleSeqIgnored(t *testing.T) {
	s := machineState{state: StateConnecting, seq: 5}

	for _, kind := range []eventKind{evDialSucceeded, evDialFailed, evConnectTimeout} {
		next, effects := transition(s, event{kind: kind, seq: 4, err: errors.New("late")}, 3)
		if next != s || effects != nil {
			t.Fatalf("stale event %d must be ignored", kind)
		}
	}
}

func TestTransition_ExhaustedAttemptsDegrade(t *testing.T) {
	// Три последовательных провала: два повтора, затем деградация
	// с ровно одной немедленной snapshot-загрузкой.
	s := machineState{state: StateDisconnected}
	snapshots := 0

	s, _ = transition(s, event{kind: evConnectRequested}, 3)

	for i := 0; i < 3; i++ {
		var effects []effectKind
		s, effects = transition(s, event{kind: evDialFailed, seq: s.seq, err: errors.New("refused")}, 3)
		if hasEffect(effects, fxSnapshot) {
			snapshots++
		}
		if i < 2 {
			if s.state != StateError {
				t.Fatalf("attempt %d: expected error state, got %s", i+1, s.state)
			}
			if !hasEffect(effects, fxArmRetryTimer) {
				t.Fatalf("attempt %d: expected retry timer, got %v", i+1, effects)
			}
			s, effects = transition(s, event{kind: evRetryDue, seq: s.seq}, 3)
			if s.state != StateConnecting || !hasEffect(effects, fxDial) {
				t.Fatalf("retry %d: expected redial, got %s %v", i+1, s.state, effects)
			}
		}
	}

	if s.state != StateDegraded {
		t.Fatalf("expected degraded after 3 failures, got %s", s.state)
	}
	if snapshots != 1 {
		t.Fatalf("expected exactly one snapshot on degraded entry, got %d", snapshots)
	}
	if s.attempts != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", s.attempts)
	}
}

func TestTransition_ConnectionLossWhileConnected(t *testing.T) {
	s := machineState{state: StateConnected, seq: 4}

	// Обрыв live-соединения приходит через onError dial-а с его seq
	// и должен запускать повтор, а не игнорироваться.
	next, effects := transition(s, event{kind: evDialFailed, seq: 4, err: errors.New("connection reset")}, 3)

	if next.state != StateError || next.attempts != 1 {
		t.Fatalf("expected retry scheduling after connection loss, got %+v", next)
	}
	for _, want := range []effectKind{fxTeardown, fxArmRetryTimer} {
		if !hasEffect(effects, want) {
			t.Fatalf("missing effect %d in %v", want, effects)
		}
	}

	// Колбэк разорванного ранее соединения (чужой seq) игнорируется.
	if nx, fx := transition(s, event{kind: evDialFailed, seq: 3, err: errors.New("late")}, 3); nx != s || fx != nil {
		t.Fatal("stale loss callback must be ignored")
	}

	// Таймаут рукопожатия к живому каналу не относится.
	if nx, fx := transition(s, event{kind: evConnectTimeout, seq: 4}, 3); nx != s || fx != nil {
		t.Fatal("connect timeout while live must be ignored")
	}
}

func TestTransition_PollOnlyWhileDegraded(t *testing.T) {
	degraded := machineState{state: StateDegraded}
	if _, effects := transition(degraded, event{kind: evPollDue}, 3); !hasEffect(effects, fxSnapshot) {
		t.Fatal("poll tick in degraded mode must request a snapshot")
	}

	connected := machineState{state: StateConnected}
	if _, effects := transition(connected, event{kind: evPollDue}, 3); effects != nil {
		t.Fatal("poll tick while live must be ignored")
	}
}

func TestTransition_DisconnectIsIdempotent(t *testing.T) {
	for _, st := range []State{StateDisconnected, StateConnecting, StateConnected, StateError, StateDegraded} {
		s := machineState{state: st, seq: 7, attempts: 2}
		next, effects := transition(s, event{kind: evDisconnectRequested}, 3)
		if next.state != StateDisconnected {
			t.Fatalf("from %s: expected disconnected, got %s", st, next.state)
		}
		if next.seq != 8 {
			t.Fatalf("from %s: disconnect must invalidate in-flight callbacks", st)
		}
		for _, want := range []effectKind{fxCancelConnectTimer, fxCancelRetryTimer, fxStopPolling, fxTeardown} {
			if !hasEffect(effects, want) {
				t.Fatalf("from %s: missing effect %d in %v", st, want, effects)
			}
		}
	}
}

func TestTransition_RefreshWhileLive(t *testing.T) {
	s := machineState{state: StateConnected, seq: 3}

	next, effects := transition(s, event{kind: evRefreshRequested}, 3)

	if next.state != StateConnecting || next.seq != 4 {
		t.Fatalf("expected reconnect cycle, got %+v", next)
	}
	if !hasEffect(effects, fxTeardown) || !hasEffect(effects, fxArmRefreshPause) {
		t.Fatalf("expected teardown+pause, got %v", effects)
	}

	next, effects = transition(next, event{kind: evPauseDone, seq: next.seq}, 3)
	if !hasEffect(effects, fxDial) {
		t.Fatalf("expected redial after pause, got %v", effects)
	}
}

func TestTransition_RefreshWhileNotLive(t *testing.T) {
	s := machineState{state: StateDegraded}

	next, effects := transition(s, event{kind: evRefreshRequested}, 3)

	if next != s {
		t.Fatalf("non-live refresh must not change state, got %+v", next)
	}
	if len(effects) != 1 || effects[0] != fxSnapshot {
		t.Fatalf("expected a single snapshot effect, got %v", effects)
	}
}

func TestTransition_MessagesGatedByState(t *testing.T) {
	live := machineState{state: StateConnected, seq: 2}
	if _, effects := transition(live, event{kind: evUpsertMsg, seq: 2}, 3); !hasEffect(effects, fxDispatchUpsert) {
		t.Fatal("live upsert must dispatch")
	}
	if _, effects := transition(live, event{kind: evUpsertMsg, seq: 1}, 3); effects != nil {
		t.Fatal("stale-connection message must be dropped")
	}

	down := machineState{state: StateDisconnected, seq: 2}
	if _, effects := transition(down, event{kind: evDeleteMsg, seq: 2}, 3); effects != nil {
		t.Fatal("message after teardown must be dropped")
	}
}
