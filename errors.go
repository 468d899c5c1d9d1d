package strata

import "errors"

// Errors fall in two classes. Construction errors (ErrInvalidDescriptor,
// ErrBufferOutOfRange, ErrUnsupportedBitWidth, ErrTypeMismatch) mean the
// descriptor or its combination with the logical type is malformed; they are
// reported by NewPageScheduler before any I/O is planned and are never worth
// retrying. Execution errors (ErrCorrupted, range read failures) surface from
// the fetch and decode phases and may be transient.
var (
	// ErrInvalidDescriptor reports a structurally malformed encoding
	// descriptor: a missing child, an unknown node kind, or a node that is
	// never materialized such as the bare struct encoding.
	ErrInvalidDescriptor = errors.New("strata: invalid encoding descriptor")

	// ErrBufferOutOfRange reports a buffer reference whose index exceeds the
	// address table of its scope.
	ErrBufferOutOfRange = errors.New("strata: buffer index out of range")

	// ErrUnsupportedBitWidth reports a flat encoding whose bits per value is
	// neither 1 nor a positive multiple of 8.
	ErrUnsupportedBitWidth = errors.New("strata: unsupported bits per value")

	// ErrTypeMismatch reports an encoding applied to a logical type it cannot
	// decode into.
	ErrTypeMismatch = errors.New("strata: encoding does not apply to logical type")

	// ErrCorrupted reports fetched bytes that do not decode: a failed block
	// decompression, offsets pointing outside their data buffer, or symbol
	// codes outside an fsst table.
	ErrCorrupted = errors.New("strata: corrupted page data")
)
