package service

import (
	"datalingua/internal/model"
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrSurveyClosed     = errors.New("survey is not accepting responses")
	ErrAlreadyResponded = errors.New("respondent already submitted a response")
	ErrNoSession        = errors.New("no fill-in session for this respondent")
	ErrBadExpression    = errors.New("invalid filter expression")
)

// Actor is the authenticated account performing an operation
type Actor struct {
	ID   string
	Role model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// canManage reports whether the actor may read or change the survey
func (a Actor) canManage(s *model.Survey) bool {
	return a.IsAdmin() || (a.ID != "" && s.CreatedBy == a.ID)
}
