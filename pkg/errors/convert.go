package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// CodePair 는 에러 코드별 HTTP 상태와 gRPC 코드 쌍
type CodePair struct {
	HTTPStatus int
	GRPCCode   codes.Code
}

var codeMapping = map[string]CodePair{
	ErrInternal:        {http.StatusInternalServerError, codes.Internal},
	ErrNotFound:        {http.StatusNotFound, codes.NotFound},
	ErrInvalidArgument: {http.StatusBadRequest, codes.InvalidArgument},
	ErrUnauthenticated: {http.StatusUnauthorized, codes.Unauthenticated},
	ErrUnauthorized:    {http.StatusForbidden, codes.PermissionDenied},
	ErrConflict:        {http.StatusConflict, codes.AlreadyExists},
	// 한도 초과는 기존 클라이언트 호환을 위해 401 로 응답
	ErrLimitExceeded: {http.StatusUnauthorized, codes.ResourceExhausted},
	ErrUnavailable:   {http.StatusServiceUnavailable, codes.Unavailable},
}

// GetCodeMapping 은 코드에 해당하는 HTTP 상태와 gRPC 코드를 반환합니다.
// 알 수 없는 코드는 500 / INTERNAL 로 처리합니다.
func GetCodeMapping(code string) (int, codes.Code) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return http.StatusInternalServerError, codes.Internal
}
