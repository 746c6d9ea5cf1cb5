// Package middleware provides HTTP middleware for the SecureBridge API.
package middleware

import (
	"errors"
	"regexp"
	"strings"
)

// Validation limits.
const (
	// MaxServiceNameLength is the maximum length for an API key service name.
	MaxServiceNameLength = 64

	// MinServiceNameLength is the minimum length for an API key service name.
	MinServiceNameLength = 2

	// MaxDescriptionLength is the maximum length for an API key description.
	MaxDescriptionLength = 256

	// MaxEmailLength is the maximum length for a user email.
	MaxEmailLength = 254

	// MaxPermissions is the maximum number of permissions per API key.
	MaxPermissions = 16
)

// Validation errors.
var (
	ErrServiceNameTooLong  = errors.New("service name exceeds maximum length")
	ErrServiceNameTooShort = errors.New("service name is too short")
	ErrServiceNameInvalid  = errors.New("service name contains invalid characters")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrEmailTooLong        = errors.New("email exceeds maximum length")
	ErrTooManyPermissions  = errors.New("too many permissions")
	ErrPermissionInvalid   = errors.New("permission is not recognized")
)

// KnownPermissions enumerates the permission strings a key may carry.
var KnownPermissions = map[string]bool{
	"read:data":  true,
	"write:data": true,
	"admin":      true,
}

// validServiceNamePattern matches valid service name characters.
// Allowed: a-z, A-Z, 0-9, hyphen, underscore, dot, space
var validServiceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._ -]+$`)

// ValidateServiceName validates a service name for API key creation.
func ValidateServiceName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) > MaxServiceNameLength {
		return ErrServiceNameTooLong
	}

	if len(name) < MinServiceNameLength {
		return ErrServiceNameTooShort
	}

	if !validServiceNamePattern.MatchString(name) {
		return ErrServiceNameInvalid
	}

	return nil
}

// ValidateDescription validates an API key description.
func ValidateDescription(desc string) error {
	if len(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateEmail bounds the email length before the service layer checks
// its shape.
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	return nil
}

// ValidatePermissions validates a requested permission set.
func ValidatePermissions(perms []string) error {
	if len(perms) > MaxPermissions {
		return ErrTooManyPermissions
	}

	for _, p := range perms {
		if !KnownPermissions[strings.ToLower(p)] {
			return ErrPermissionInvalid
		}
	}

	return nil
}
