package compiler

import "errors"

var (
	// ErrConfiguration marks user-correctable analysis failures: conflicting
	// images, defaults on file parameters, missing capture material.
	ErrConfiguration = errors.New("invalid component configuration")

	// ErrUnsupportedPassingStyle marks a passing style the command builder
	// does not know how to lower.
	ErrUnsupportedPassingStyle = errors.New("unsupported data passing style")
)
