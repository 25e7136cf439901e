// Package api contains the request contracts of the excelflow HTTP API.
// Version v1 is the current API version.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ActionRequest is the body of POST /api/datasets/{id}/actions
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=clean validate transform report"`
}

// Bind normalizes the action name and validates the request. It
// implements render.Binder.
func (a *ActionRequest) Bind(r *http.Request) error {
	a.Action = strings.ToLower(strings.TrimSpace(a.Action))
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("action must be one of clean, validate, transform, report (got %q)", a.Action)
	}
	return nil
}
