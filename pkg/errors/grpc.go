package errors

import (
	"google.golang.org/grpc/status"
)

// ToGRPCStatus 는 에러를 gRPC status 에러로 변환합니다.
func ToGRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var appErr *AppError
	if As(err, &appErr) {
		_, code := GetCodeMapping(appErr.Code())
		return status.Error(code, appErr.Message())
	}

	_, code := GetCodeMapping(ErrInternal)
	return status.Error(code, "internal error")
}
