package core

import "errors"

var (
	// ErrMissingSkeleton is returned by a skinning sampler that has no bound skeleton.
	// The trail for that mesh degrades to zero instances; the frame continues.
	ErrMissingSkeleton = errors.New("mesh has no bound skeleton")

	// ErrDimensionMismatch means the mesh vertex count no longer matches the
	// allocated vertex state buffer. The buffer must be reallocated and reseeded.
	ErrDimensionMismatch = errors.New("vertex count does not match vertex state buffer")

	// ErrUninitialized is returned when the buffer is read or stepped before the seeding pass.
	ErrUninitialized = errors.New("vertex state buffer not seeded")
)
