package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const statusError = "error"

// shortenRequest represents the structure for a request to shorten a URL.
type shortenRequest struct {
	Destination string `json:"destination" validate:"max=2048"`
	CustomSlug  string `json:"customSlug" validate:"omitempty,slug"`
}

// shortenResponse represents the structure for a response containing a created short link.
type shortenResponse struct {
	Slug     string `json:"slug"`
	ShortURL string `json:"shortUrl"`
}

// linkStatsResponse represents the structure for a response containing link statistics.
type linkStatsResponse struct {
	Slug           string    `json:"slug"`
	DestinationURL string    `json:"destinationUrl"`
	ShortURL       string    `json:"shortUrl"`
	ClickCount     int64     `json:"clickCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toLinkStatsResponse(link *entity.Link, shortURL string) linkStatsResponse {
	return linkStatsResponse{
		Slug:           link.Slug,
		DestinationURL: link.DestinationURL,
		ShortURL:       shortURL,
		ClickCount:     link.ClickCount,
		CreatedAt:      link.CreatedAt,
	}
}

// historyResponse lists the caller's recently created links, newest first.
type historyResponse struct {
	Links []linkStatsResponse `json:"links"`
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Errors []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status: statusError,
		Error:  "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status: statusError,
		Error:  "invalid request body",
	}

	invalidURLResponse = errorResponse{
		Status: statusError,
		Error:  entity.ErrInvalidURL.Error(),
	}

	invalidSlugResponse = errorResponse{
		Status: statusError,
		Error:  entity.ErrInvalidSlug.Error(),
	}

	slugTakenResponse = errorResponse{
		Status: statusError,
		Error:  entity.ErrSlugTaken.Error(),
	}

	linkNotFoundResponse = errorResponse{
		Status: statusError,
		Error:  entity.ErrLinkNotFound.Error(),
	}

	serverErrorResponse = errorResponse{
		Status: statusError,
		Error:  "server error occurred",
	}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "max":
		return "value is too long"
	case "slug":
		return "only letters, digits, '-' and '_' are allowed, up to 30 characters"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
// The top-level error names the same kind the use case would report for the field.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status: statusError,
		Error:  validationErrorKind(err),
		Errors: getValidationErrors(err),
	}
}

func validationErrorKind(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		switch errs[0].Field() {
		case "customSlug":
			return entity.ErrInvalidSlug.Error()
		case "destination":
			return entity.ErrInvalidURL.Error()
		}
	}
	return "validation error"
}
