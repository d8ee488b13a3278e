package service

import "errors"

// The error taxonomy handlers map onto HTTP responses. Store-level detail
// is wrapped into one of these and never shown to clients directly.
var (
	ErrStoreWrite   = errors.New("blob store write failed")
	ErrStoreRead    = errors.New("blob store read failed")
	ErrNotFound     = errors.New("record not found")
	ErrUploadFailed = errors.New("upload failed")
	ErrBilling      = errors.New("billing session creation failed")
	ErrValidation   = errors.New("invalid request")
)
