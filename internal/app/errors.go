package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func errNotFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func errInvalidParent(parentID string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "INVALID_PARENT", "Parent not found", map[string]any{"parentId": parentID})
}

func errSelfParent() *DomainError {
	return domainError(http.StatusUnprocessableEntity, "SELF_PARENT", "An entry cannot be its own parent", nil)
}

func errCyclic(parentID string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "CYCLIC", "Move would make an entry a descendant of itself", map[string]any{"parentId": parentID})
}

func errUnauthorized(message string) *DomainError {
	return domainError(http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func errForbidden() *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", "Insufficient role for this operation", nil)
}

func errValidation(details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", details)
}

func errConflict(message string) *DomainError {
	return domainError(http.StatusConflict, "CONFLICT", message, nil)
}
