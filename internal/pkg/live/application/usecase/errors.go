package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
var ErrPersistence = errors.New("live use case persistence error")

// ErrMovementNotFound indicates the requested movement does not exist.
var ErrMovementNotFound = errors.New("movement not found")
