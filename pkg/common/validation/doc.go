// Package validation provides common validation utilities for configuration
// parameters across the msgthrottle library.
//
// Every validator returns a *errors.ValidationError that unwraps to
// errors.ErrInvalidConfiguration, so constructors can surface a uniform
// error with a remediation hint.
package validation
