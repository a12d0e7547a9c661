package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested record is not found.
	NotFound = ErrorKind("Not Found")
	// AlreadyExists is returned when creating a record that collides with a unique index.
	AlreadyExists = ErrorKind("Already Exists")
	// Unauthorized is returned when the acting account does not hold the required role.
	Unauthorized = ErrorKind("Unauthorized")
	// InvalidArgument is returned when an operation carries malformed or out-of-range parameters.
	InvalidArgument = ErrorKind("Invalid Argument")
	// InvalidState is returned when current ledger state rejects an otherwise well-formed operation.
	InvalidState = ErrorKind("Invalid State")
	// Unsupported is returned for operation kinds this pipeline does not handle.
	Unsupported    = ErrorKind("Unsupported")
	OverflowInt64  = ErrorKind("overflow int64")
	OverflowUint64 = ErrorKind("overflow uint64")

	// InvariantViolation marks defensive checks that must be unreachable if
	// evaluation was correct. It is fatal to the containing batch and must
	// never be surfaced as a user error.
	InvariantViolation = ErrorKind("Invariant Violation")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
