package domain

import "errors"

var (
	// ErrPermission: a device (microphone) could not be acquired.
	ErrPermission = errors.New("device access denied")
	// ErrTransport: a request to the AI backend failed.
	ErrTransport = errors.New("ai backend request failed")
	ErrDecode    = errors.New("malformed audio payload")
	ErrEncode    = errors.New("audio encoding failed")
	// ErrEmptyResult: the backend answered with no images or no quiz questions.
	ErrEmptyResult = errors.New("empty result")

	// ErrBusy is returned while another AI request of the session is in flight.
	ErrBusy              = errors.New("a request is already in progress")
	ErrInvalidTransition = errors.New("operation not allowed in current view")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSessionNotFound   = errors.New("session not found")
	ErrQuizFinished      = errors.New("quiz already finished")
	ErrInvalidAnswer     = errors.New("answer index out of range")
)
