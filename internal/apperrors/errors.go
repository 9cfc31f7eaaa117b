package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnsupportedFormat indicates an upload whose format no adapter handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrRead indicates the upload could not be read or decoded.
var ErrRead = errors.New("failed to read file")

// ErrSubmission indicates the pricing backend rejected or failed a submission.
var ErrSubmission = errors.New("pricing submission failed")

// ErrStorageDisabled is returned when persistence is requested without a database.
var ErrStorageDisabled = errors.New("storage is not configured")
