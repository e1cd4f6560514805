// Package sentinel provides a string-backed error type so that package-level
// sentinel errors can be declared as constants.
//
// Values of type Error compare by value, which keeps errors.Is working through
// fmt.Errorf("%w") wrapping while preventing callers from reassigning them.
package sentinel
