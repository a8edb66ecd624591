package actor

// SystemError classifies runtime-level failures that the runtime reports to
// error handlers and carries in down/exit notifications.
type SystemError uint8

const (
	// NoError is the zero value: no failure recorded.
	NoError SystemError = iota
	// ErrUnexpectedMessage: a message arrived for which no behavior is
	// registered.
	ErrUnexpectedMessage
	// ErrUnexpectedResponse: a reply arrived that matches no awaited
	// request.
	ErrUnexpectedResponse
	// ErrRequestReceiverDown: the target address was closed or gone when a
	// request was transmitted.
	ErrRequestReceiverDown
	// ErrRequestTimeout: no reply arrived before the request deadline.
	ErrRequestTimeout
	// ErrRuntimeError: a handler panicked.
	ErrRuntimeError
)

func (e SystemError) String() string {
	switch e {
	case NoError:
		return "no error"
	case ErrUnexpectedMessage:
		return "unexpected message"
	case ErrUnexpectedResponse:
		return "unexpected response"
	case ErrRequestReceiverDown:
		return "request receiver down"
	case ErrRequestTimeout:
		return "request timeout"
	case ErrRuntimeError:
		return "runtime error"
	default:
		return "unknown system error"
	}
}

func (e SystemError) Error() string { return e.String() }

// ExitReason describes why an actor terminated.
type ExitReason uint8

const (
	ExitNormal ExitReason = iota
	ExitUnhandledException
	ExitUnknown
	ExitUserShutdown
	ExitKill
)

func (r ExitReason) String() string {
	switch r {
	case ExitNormal:
		return "normal"
	case ExitUnhandledException:
		return "unhandled exception"
	case ExitUnknown:
		return "unknown"
	case ExitUserShutdown:
		return "user shutdown"
	case ExitKill:
		return "kill"
	default:
		return "invalid exit reason"
	}
}
