// Package response writes the JSON envelope every tally endpoint returns:
// {"data": ..., "error": null} on success and {"data": null, "error": {...}}
// on failure.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

// Error codes carried in the envelope.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_ERROR"
	CodeParse            = "PARSE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeDuplicate        = "DUPLICATE"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeStorage          = "STORAGE_ERROR"
	CodeCanceled         = "CANCELED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Response is the envelope.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Duplicate is the data of a 409 response: the stored record the
// submission matched.
type Duplicate struct {
	Similarity     int               `json:"similarity"`
	MatchedIndex   int               `json:"matched_index"`
	ExistingRecord records.Record `json:"existing_record"`
}

// Success wraps data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail builds an error envelope.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with status. Encoding errors are dropped; the status
// line is already out.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// BadRequest writes a 400 for a malformed request.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(CodeNotFound, message, details))
}

// MethodNotAllowed writes a 405.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(CodeMethodNotAllowed,
		"Method not allowed", "Method "+method+" is not supported for this endpoint"))
}

// RateLimited writes a 429.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail(CodeRateLimited, "Rate limit exceeded", message))
}

// InternalError writes a 500 without exposing err to the client.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(CodeInternal,
		"Internal server error", "An unexpected error occurred"))
}

// Conflict writes a 409 carrying the matched record.
func Conflict(w http.ResponseWriter, e *errors.DuplicateError) {
	resp := Fail(CodeDuplicate, "Similar record already exists", e.Error())
	resp.Data = Duplicate{
		Similarity:     e.SimilarityPercent,
		MatchedIndex:   e.MatchedIndex,
		ExistingRecord: records.FromMap(e.Matched, e.Columns...),
	}
	JSON(w, http.StatusConflict, resp)
}

// ErrorFromType writes the response for err by its kind. Storage and
// unknown failures are 500s whose details stay server-side.
func ErrorFromType(w http.ResponseWriter, err error) {
	var dup *errors.DuplicateError
	if errors.As(err, &dup) {
		Conflict(w, dup)
		return
	}

	switch {
	case errors.IsNotFound(err):
		JSON(w, http.StatusNotFound, Fail(CodeNotFound, err.Error(), ""))
	case errors.IsValidationError(err):
		JSON(w, http.StatusBadRequest, Fail(CodeValidation, err.Error(), ""))
	case errors.IsParse(err):
		JSON(w, http.StatusBadRequest, Fail(CodeParse, "Unreadable file", err.Error()))
	case errors.IsCanceled(err):
		JSON(w, http.StatusServiceUnavailable, Fail(CodeCanceled, "Request canceled", ""))
	case errors.IsIO(err):
		JSON(w, http.StatusInternalServerError, Fail(CodeStorage, "Dataset storage failed", ""))
	default:
		InternalError(w, err)
	}
}
