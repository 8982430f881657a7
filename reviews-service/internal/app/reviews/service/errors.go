package service

import "errors"

var (
	ErrReviewNotFound     = errors.New("review not found")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrNothingToUpdate    = errors.New("no fields to update")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("admin user is inactive")
)
