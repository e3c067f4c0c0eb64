package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Shared sentinel errors, mapped to HTTP statuses in the handlers package.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRoleNotAssignable  = errors.New("requested role cannot be self-assigned")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrCoachRoleRequired  = errors.New("referenced user must have the coach role")
	ErrPlayerRoleRequired = errors.New("referenced user must have the player role")
	ErrPlayerNotOnTeam    = errors.New("player is not on this team")
	ErrPlayerHasTeam      = errors.New("player is already on a team")
	ErrSameTeamGame       = errors.New("a team cannot play against itself")
	ErrGameNotEditable    = errors.New("completed or cancelled games cannot be updated")

	// Conflicts
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrJerseyNumberConflict = errors.New("jersey number is already taken on this team")
	ErrPlayerProfileExists  = errors.New("user already has a player profile")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrNotTeamCoach         = errors.New("only the team's coach or an admin can perform this action")
	ErrNotGameParticipant   = errors.New("only a coach of a participating team or an admin can update this game")

	// Entity-specific not-found errors
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameNotFound   = errors.New("game not found")

	// Infrastructure
	ErrUploaderNotConfigured = errors.New("object storage is not configured")
)

// ValidationError carries itemized per-field messages back to the handler,
// which renders them as a 400 with an errors map.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validator accumulates field errors the way handlers expect them.
type validator struct {
	fields map[string]string
}

func newValidator() *validator {
	return &validator{fields: make(map[string]string)}
}

func (v *validator) addError(field, message string) {
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = message
	}
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.addError(field, message)
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
