package channel

// State — состояние машины соединения live-канала.
type State string

const (
	// StateDisconnected — канал не подключён и не пытается подключиться.
	StateDisconnected State = "disconnected"
	// StateConnecting — попытка подключения в полёте.
	StateConnecting State = "connecting"
	// StateConnected — подписки установлены, события доставляются.
	StateConnected State = "connected"
	// StateError — попытка провалилась, назначен повтор.
	StateError State = "error"
	// StateDegraded — повторы исчерпаны, работает опрос по интервалу.
	StateDegraded State = "degraded"
)

// eventKind перечисляет входы машины; внешние вызовы и асинхронные колбэки
// сводятся к событиям одного цикла.
type eventKind int

const (
	evConnectRequested eventKind = iota
	evDisconnectRequested
	evRefreshRequested
	evDialSucceeded
	evDialFailed
	evConnectTimeout
	evRetryDue
	evPauseDone
	evPollDue
	evTransportLost
	evUpsertMsg
	evDeleteMsg
)

// event несёт вид входа, номер попытки (seq) и полезную нагрузку.
// seq защищает от устаревших таймеров и колбэков: вход с чужим номером
// попытки игнорируется переходом, а не мутирует состояние.
type event struct {
	kind    eventKind
	seq     uint64
	err     error
	payload []byte
}

// effectKind — побочные действия, которые исполняет цикл канала.
// Сама функция перехода чиста: (state, event) -> (state', effects).
type effectKind int

const (
	fxDial effectKind = iota
	fxTeardown
	fxSubscribe
	fxArmConnectTimer
	fxCancelConnectTimer
	fxArmRetryTimer
	fxCancelRetryTimer
	fxArmRefreshPause
	fxStartPolling
	fxStopPolling
	fxSnapshot
	fxNotify
	fxDispatchUpsert
	fxDispatchDelete
)

// machineState — полное состояние машины соединения.
type machineState struct {
	state    State
	attempts int
	seq      uint64
	lastErr  error
}

// transition — чистая функция переходов. maxAttempts — предел повторов,
// после которого канал деградирует в режим опроса.
func transition(s machineState, ev event, maxAttempts int) (machineState, []effectKind) {
	switch ev.kind {
	case evConnectRequested:
		// Single-flight: повторный connect в полёте или при живом канале — no-op.
		if s.state == StateConnecting || s.state == StateConnected {
			return s, nil
		}
		s.seq++
		s.attempts = 0
		s.lastErr = nil
		s.state = StateConnecting
		return s, []effectKind{fxStopPolling, fxCancelRetryTimer, fxDial, fxArmConnectTimer, fxNotify}

	case evDisconnectRequested:
		// Идемпотентно: безопасно из любого состояния, включая "никогда не подключался".
		s.seq++
		s.attempts = 0
		s.lastErr = nil
		s.state = StateDisconnected
		return s, []effectKind{fxCancelConnectTimer, fxCancelRetryTimer, fxStopPolling, fxTeardown, fxNotify}

	case evRefreshRequested:
		if s.state == StateConnected {
			// Полный цикл переподключения: teardown, краткая пауза, connect.
			s.seq++
			s.attempts = 0
			s.state = StateConnecting
			return s, []effectKind{fxTeardown, fxArmRefreshPause, fxNotify}
		}
		// Не live: ручное обновление эквивалентно прямой snapshot-загрузке.
		return s, []effectKind{fxSnapshot}

	case evPauseDone:
		if s.state != StateConnecting || ev.seq != s.seq {
			return s, nil
		}
		return s, []effectKind{fxDial, fxArmConnectTimer}

	case evDialSucceeded:
		if s.state != StateConnecting || ev.seq != s.seq {
			return s, nil
		}
		s.state = StateConnected
		s.attempts = 0
		s.lastErr = nil
		return s, []effectKind{fxCancelConnectTimer, fxSubscribe, fxStopPolling, fxNotify}

	case evDialFailed:
		if ev.seq != s.seq {
			return s, nil
		}
		// Обрыв уже установленного соединения приходит тем же колбэком,
		// что и провал рукопожатия: read pump транспорта сообщает о потере
		// через onError, сохранённый при dial-е. Для live-канала это
		// эквивалент evTransportLost.
		if s.state != StateConnecting && s.state != StateConnected {
			return s, nil
		}
		return fail(s, ev, maxAttempts)

	case evConnectTimeout:
		if s.state != StateConnecting || ev.seq != s.seq {
			return s, nil
		}
		return fail(s, ev, maxAttempts)

	case evTransportLost:
		if s.state != StateConnected || ev.seq != s.seq {
			return s, nil
		}
		return fail(s, ev, maxAttempts)

	case evRetryDue:
		if s.state != StateError || ev.seq != s.seq {
			return s, nil
		}
		s.seq++
		s.state = StateConnecting
		return s, []effectKind{fxDial, fxArmConnectTimer, fxNotify}

	case evPollDue:
		// Опрос срабатывает только пока канал не live.
		if s.state != StateDegraded {
			return s, nil
		}
		return s, []effectKind{fxSnapshot}

	case evUpsertMsg:
		if s.state != StateConnected || ev.seq != s.seq {
			return s, nil
		}
		return s, []effectKind{fxDispatchUpsert}

	case evDeleteMsg:
		if s.state != StateConnected || ev.seq != s.seq {
			return s, nil
		}
		return s, []effectKind{fxDispatchDelete}
	}

	return s, nil
}

// fail обрабатывает провал попытки: повтор до предела, затем деградация
// с немедленной snapshot-загрузкой и запуском опроса.
func fail(s machineState, ev event, maxAttempts int) (machineState, []effectKind) {
	s.attempts++
	s.lastErr = ev.err

	if s.attempts < maxAttempts {
		s.state = StateError
		return s, []effectKind{fxCancelConnectTimer, fxTeardown, fxArmRetryTimer, fxNotify}
	}

	s.state = StateDegraded
	return s, []effectKind{fxCancelConnectTimer, fxTeardown, fxSnapshot, fxStartPolling, fxNotify}
}
