package sentinel

var _ error = Error("")

// Error is an error whose identity is its message. Declare sentinels with it
// as constants:
//
//	const ErrPortExhausted = sentinel.Error("no free port found")
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
