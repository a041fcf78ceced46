// Package services defines the business logic for twins, chat and analytics.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Structural validation failures are returned as
// *domain.ValidationError rather than sentinels so the offending field travels
// with the error.
package services

import "errors"

var (
	// ErrTwinNotFound indicates that the requested twin does not exist, or
	// that no twin exists at all when the most recent one was requested.
	ErrTwinNotFound = errors.New("twin not found")

	// ErrEmptyMessage is returned when a chat message is blank after trimming.
	ErrEmptyMessage = errors.New("message is required")

	// ErrTooLong is returned when a chat message exceeds the configured
	// maximum length.
	ErrTooLong = errors.New("message too long")

	// ErrPersonaRequired is returned when a create request carries neither
	// persona text nor a personality profile.
	ErrPersonaRequired = errors.New("persona or personality profile is required")
)
