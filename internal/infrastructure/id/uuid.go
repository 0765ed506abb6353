package id

import "github.com/google/uuid"

type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

// NewID returns a random (v4) UUID in canonical form.
func (UUIDGenerator) NewID() string { return uuid.NewString() }
