package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use
// case. Callers map it to an upstream-failure status without exposing the
// underlying storage error.
var ErrPersistence = fmt.Errorf("chat use case persistence error")
