package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/withstack"
)

// PublicError marks an error whose message is safe to return to the caller
// verbatim. Evaluators use it for validation failures: the message carries
// expected vs. actual values and the offending identifiers, so protocol
// error handlers can surface it unchanged. Errors without this marker are
// reported as internal.
type PublicError struct {
	err     error
	message string
	code    string // optional machine-readable discriminator
}

func (p PublicError) Error() string   { return p.err.Error() }
func (p PublicError) Message() string { return p.message }
func (p PublicError) Code() string    { return p.code }
func (p PublicError) Unwrap() error   { return p.err }

func newPublic(err error, message, code string) error {
	return withstack.WithStackDepth(&PublicError{err: err, message: message, code: code}, 2)
}

func NewPublicError(message string) error {
	return newPublic(errors.New(message), message, "")
}

func NewPublicErrorWithCode(message string, code string) error {
	return newPublic(errors.New(message), message, code)
}

// WithPublicMessage marks err public. The public message is err's message,
// prefixed when prefix is non-empty.
func WithPublicMessage(err error, prefix string) error {
	return WithPublicMessageCode(err, prefix, "")
}

func WithPublicMessageCode(err error, prefix string, code string) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	if prefix != "" {
		message = fmt.Sprintf("%s: %s", prefix, message)
	}
	return newPublic(err, message, code)
}
