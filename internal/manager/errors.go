package manager

import (
	"errors"
	"net/http"
)

// validationError marks a bad request (unknown algorithm, bad colour, not an image).
type validationError struct{ msg string }

func (e validationError) Error() string   { return e.msg }
func (e validationError) StatusCode() int { return http.StatusBadRequest }

// ErrValidation constructs a validationError.
func ErrValidation(msg string) error { return validationError{msg: msg} }

// ErrUnknownAlgorithm is the validation error for ids outside the catalog.
func ErrUnknownAlgorithm(id string) error {
	return validationError{msg: "unknown algorithm: " + id}
}

// IsValidation reports whether err is a client input error (400).
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// modelUnavailableError signals that a provider could not be constructed.
type modelUnavailableError struct {
	id  string
	err error
}

func (e modelUnavailableError) Error() string {
	return "model unavailable: " + e.id + ": " + e.err.Error()
}
func (e modelUnavailableError) Unwrap() error   { return e.err }
func (e modelUnavailableError) StatusCode() int { return http.StatusInternalServerError }

// ErrModelUnavailable wraps a provider construction failure for id.
func ErrModelUnavailable(id string, err error) error {
	if err == nil {
		err = errors.New("provider unavailable")
	}
	return modelUnavailableError{id: id, err: err}
}

// IsModelUnavailable reports whether err is a provider construction failure.
func IsModelUnavailable(err error) bool {
	var v modelUnavailableError
	return errors.As(err, &v)
}

// inferenceError wraps a failure (or recovered panic) inside a provider call.
type inferenceError struct {
	id  string
	err error
}

func (e inferenceError) Error() string   { return "inference failed: " + e.id + ": " + e.err.Error() }
func (e inferenceError) Unwrap() error   { return e.err }
func (e inferenceError) StatusCode() int { return http.StatusInternalServerError }

func ErrInference(id string, err error) error { return inferenceError{id: id, err: err} }

// IsInference reports whether err came from a provider call.
func IsInference(err error) bool {
	var v inferenceError
	return errors.As(err, &v)
}

// encodingError wraps post-processing and image encoding failures.
type encodingError struct{ err error }

func (e encodingError) Error() string   { return "encoding failed: " + e.err.Error() }
func (e encodingError) Unwrap() error   { return e.err }
func (e encodingError) StatusCode() int { return http.StatusInternalServerError }

func ErrEncoding(err error) error { return encodingError{err: err} }

// IsEncoding reports whether err came from output encoding.
func IsEncoding(err error) bool {
	var v encodingError
	return errors.As(err, &v)
}

// tooBusyError signals that the accelerator gate wait limit elapsed (429).
type tooBusyError struct{ id string }

func (e tooBusyError) Error() string   { return "too busy: " + e.id }
func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var v tooBusyError
	return errors.As(err, &v)
}
