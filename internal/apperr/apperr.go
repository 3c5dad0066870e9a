// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the subsystem that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindAudio
	KindSTT
	KindEnhancement
	KindTextInsertion
	KindSecurity
	KindIO
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindSTT:
		return "stt"
	case KindEnhancement:
		return "enhancement"
	case KindTextInsertion:
		return "text insertion"
	case KindSecurity:
		return "security"
	case KindIO:
		return "io"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrAudio         = &Error{Kind: KindAudio}
	ErrSTT           = &Error{Kind: KindSTT}
	ErrEnhancement   = &Error{Kind: KindEnhancement}
	ErrTextInsertion = &Error{Kind: KindTextInsertion}
	ErrSecurity      = &Error{Kind: KindSecurity}
	ErrIO            = &Error{Kind: KindIO}
	ErrNetwork       = &Error{Kind: KindNetwork}
)

// Error carries a Kind, a user-facing message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare kind sentinels (ErrAudio, ErrSTT, ...) by Kind.
// Errors carrying a message only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Message returns the user-facing text of err: the Msg of the outermost
// *Error if there is one, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// New returns an *Error of kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of kind wrapping err. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Audio(format string, args ...any) *Error { return New(KindAudio, format, args...) }
func STT(format string, args ...any) *Error   { return New(KindSTT, format, args...) }
func Enhancement(format string, args ...any) *Error {
	return New(KindEnhancement, format, args...)
}
func TextInsertion(format string, args ...any) *Error {
	return New(KindTextInsertion, format, args...)
}
func Security(format string, args ...any) *Error { return New(KindSecurity, format, args...) }
func IO(format string, args ...any) *Error       { return New(KindIO, format, args...) }
func Network(format string, args ...any) *Error  { return New(KindNetwork, format, args...) }
