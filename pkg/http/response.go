package http

import (
	"encoding/json"
	"net/http"
	apperrors "rentals/pkg/errors"
)

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type PaginatedResponse struct {
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

var statusByCode = map[string]int{
	apperrors.CodeInvalidInput:     http.StatusBadRequest,
	apperrors.CodeInvalidDateRange: http.StatusBadRequest,
	apperrors.CodeNotFound:         http.StatusNotFound,
	apperrors.CodeConflict:         http.StatusConflict,
	apperrors.CodeValidation:       http.StatusUnprocessableEntity,
	apperrors.CodePropertyBusy:     http.StatusUnprocessableEntity,
	apperrors.CodePropertyBlocked:  http.StatusUnprocessableEntity,
	apperrors.CodeBusinessRule:     http.StatusUnprocessableEntity,
	apperrors.CodeLockTimeout:      http.StatusServiceUnavailable,
	apperrors.CodeUnavailable:      http.StatusServiceUnavailable,
	apperrors.CodeInternal:         http.StatusInternalServerError,
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error to its HTTP status. Errors that are not AppErrors
// are internal.
func StatusFor(err error) int {
	if !apperrors.IsAppError(err) {
		return http.StatusInternalServerError
	}
	appErr := apperrors.AsAppError(err)
	if status, ok := statusByCode[appErr.Code]; ok {
		return status
	}
	if appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func WriteError(w http.ResponseWriter, err error) error {
	statusCode := StatusFor(err)

	var errResp apperrors.ErrorResponse
	if apperrors.IsAppError(err) && statusCode != http.StatusInternalServerError {
		appErr := apperrors.AsAppError(err)
		errResp = apperrors.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	} else {
		errResp = apperrors.ErrorResponse{
			Code:    apperrors.CodeInternal,
			Message: "Internal server error",
		}
	}

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	return WriteJSON(w, statusCode, errResp)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}
