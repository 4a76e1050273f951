// Package model provides the domain model for header array files.
package model

import "errors"

// ErrKeyNotFound is returned when a partial lookup names an element that is
// not part of the corresponding defining set.
var ErrKeyNotFound = errors.New("key not found")

// ErrUnknownArrayType is returned when a type code does not name one of the
// known header array types.
var ErrUnknownArrayType = errors.New("unknown array type")
