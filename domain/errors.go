package domain

import "errors"

// ErrNotFound is returned by repositories when a record does not exist.
// Callers translate it into the appropriate OAuth error; it must never be
// surfaced to clients in a way that distinguishes "missing" from "invalid".
var ErrNotFound = errors.New("record not found")
