package domain

import "errors"

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when an operator reads data of another organization
var ErrForbidden = errors.New("forbidden")
