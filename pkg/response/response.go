package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST    ErrCode = "REQUEST_FAILED"
	BAD_REQUEST       ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND         ErrCode = "NOT_FOUND"
	UNAUTHORIZED      ErrCode = "UNAUTHORIZED"
	FORBIDDEN         ErrCode = "FORBIDDEN"
	SUBJECT_NOT_FOUND ErrCode = "SUBJECT_NOT_FOUND"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("invalid or expired credential")
	ErrSubjectNotFound = errors.New("export subject not found")
	ErrMalformedDate   = errors.New("malformed date")
	ErrStale           = errors.New("stale detail response")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
