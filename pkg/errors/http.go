package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPStatus 는 에러 코드를 HTTP 상태 코드로 변환합니다.
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// ErrorBody 는 에러 응답 본문
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ToHTTPResponse 는 에러를 상태 코드와 응답 본문으로 변환합니다.
// 원인 에러의 텍스트(예: 결제사 응답)는 응답에 포함하지 않습니다.
func ToHTTPResponse(err error) (int, ErrorBody) {
	var appErr *AppError
	if As(err, &appErr) {
		return ToHTTPStatus(appErr.Code()), ErrorBody{Error: appErr.Message(), Code: appErr.Code()}
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, ErrorBody{Error: msg, Code: httpStatusToCode(echoErr.Code)}
	}

	return http.StatusInternalServerError, ErrorBody{Error: http.StatusText(http.StatusInternalServerError), Code: ErrInternal}
}

// ToHTTPError 는 에러를 Echo HTTP 에러로 변환합니다.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}
	status, body := ToHTTPResponse(err)
	return echo.NewHTTPError(status, body.Error).SetInternal(err)
}

// FromHTTPError 는 Echo HTTP 에러를 AppError 로 변환합니다.
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return err
	}

	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = http.StatusText(echoErr.Code)
		}
		return NewAppError(httpStatusToCode(echoErr.Code), msg, nil)
	}

	return NewAppError(ErrInternal, err.Error(), err)
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return ErrInternal
	}
}
