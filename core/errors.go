package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorFetchFailed      = "SPLIST_FETCH_FAILED"
	ErrorCreateFailed     = "SPLIST_CREATE_FAILED"
	ErrorUpdateFailed     = "SPLIST_UPDATE_FAILED"
	ErrorUploadFailed     = "SPLIST_UPLOAD_FAILED"
	ErrorDecodeFailed     = "SPLIST_DECODE_FAILED"
	ErrorTransportFailure = "SPLIST_TRANSPORT_FAILURE"
	ErrorBadInput         = "SPLIST_BAD_INPUT"
	ErrorInternal         = "SPLIST_INTERNAL_ERROR"
)

const (
	OperationReadOne          = "read_one"
	OperationReadMany         = "read_many"
	OperationReadEntity       = "read_entity"
	OperationCreate           = "create"
	OperationUpdate           = "update"
	OperationUploadAttachment = "upload_attachment"
	OperationDeleteAttachment = "delete_attachment"
)

// StatusFailure describes a non-2xx response for a resource operation.
type StatusFailure struct {
	Resource  string
	Operation string
	URL       string
	Status    int
}

func NewFetchFailed(failure StatusFailure) *goerrors.Error {
	return newStatusError("fetch failed", ErrorFetchFailed, failure)
}

func NewCreateFailed(failure StatusFailure) *goerrors.Error {
	return newStatusError("create failed", ErrorCreateFailed, failure)
}

func NewUpdateFailed(failure StatusFailure) *goerrors.Error {
	return newStatusError("update failed", ErrorUpdateFailed, failure)
}

func NewUploadFailed(failure StatusFailure) *goerrors.Error {
	return newStatusError("attachment upload failed", ErrorUploadFailed, failure)
}

func NewDecodeFailed(source error, resource string, operation string, url string) *goerrors.Error {
	message := "splist: " + strings.TrimSpace(resource) + " " + operation + " returned an unexpected envelope"
	metadata := map[string]any{
		"resource":  resource,
		"operation": operation,
		"url":       url,
	}
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryExternal)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryExternal, message)
	}
	return err.
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorDecodeFailed).
		WithMetadata(metadata)
}

func NewBadInput(message string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func newStatusError(summary string, textCode string, failure StatusFailure) *goerrors.Error {
	message := "splist: " + strings.TrimSpace(failure.Resource) + " " + summary
	return goerrors.New(message, goerrors.CategoryExternal).
		WithCode(failure.Status).
		WithTextCode(textCode).
		WithMetadata(map[string]any{
			"resource":  failure.Resource,
			"operation": failure.Operation,
			"status":    failure.Status,
			"url":       failure.URL,
		})
}

func IsFetchFailed(err error) bool  { return HasTextCode(err, ErrorFetchFailed) }
func IsCreateFailed(err error) bool { return HasTextCode(err, ErrorCreateFailed) }
func IsUpdateFailed(err error) bool { return HasTextCode(err, ErrorUpdateFailed) }
func IsUploadFailed(err error) bool { return HasTextCode(err, ErrorUploadFailed) }
func IsDecodeFailed(err error) bool { return HasTextCode(err, ErrorDecodeFailed) }
func IsBadInput(err error) bool     { return HasTextCode(err, ErrorBadInput) }

func HasTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// StatusOf returns the upstream HTTP status carried by a status failure, or 0.
func StatusOf(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return 0
	}
	switch status := richErr.Metadata["status"].(type) {
	case int:
		return status
	case int64:
		return int(status)
	case float64:
		return int(status)
	}
	return 0
}

func splistErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"),
		strings.Contains(msg, "must "), strings.Contains(msg, "not supported"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryBadInput).WithTextCode(ErrorBadInput))
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = categoryHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryExternal:
		return ErrorTransportFailure
	default:
		return ErrorInternal
	}
}

func categoryHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
