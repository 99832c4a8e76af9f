// Package service holds the application use cases. Services load data through
// repositories, apply the scheduling rules from package schedule and persist
// the outcome.
package service

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors shared by several services.
var (
	ErrInvalidID     = errors.New("invalid id")
	ErrUserNotFound  = errors.New("user not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidStatus = errors.New("status transition not allowed")
)

func parseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
