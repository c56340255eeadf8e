package errors

// 애플리케이션 에러 코드
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	// ErrLimitExceeded 는 설정된 한도를 넘는 요청 (예: 최대 결제 금액 초과)
	ErrLimitExceeded = "LIMIT_EXCEEDED"
	ErrUnavailable   = "UNAVAILABLE"
)
