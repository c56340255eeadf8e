package logger

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/founderlab/fl-stripe-server/pkg/errors"
)

// 요청 로그에서 제외할 경로
var skippedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// NewEchoRequestLogger 는 zap 으로 HTTP 요청/응답을 기록하는 미들웨어를 생성합니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return skippedPaths[c.Request().URL.Path]
		},
		HandleError: true,

		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogRequestID: true,
		LogUserAgent: true,
		LogStatus:    true,
		LogError:     true,
		LogHeaders:   []string{"Authorization"},

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.route", v.RoutePath),
				zap.String("request.request_id", v.RequestID),
				zap.String("request.user_agent", v.UserAgent),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
			}
			if auth := v.Headers["Authorization"]; len(auth) > 0 {
				fields = append(fields, zap.String("request.authorization", maskToken(auth[0])))
			}

			switch {
			case v.Error != nil:
				fields = append(fields, zap.Error(v.Error))
				logger.Error("Request failed", fields...)
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// maskToken 은 Bearer 토큰의 앞뒤 일부만 남깁니다.
func maskToken(val string) string {
	if len(val) <= 15 {
		return "[MASKED]"
	}
	return val[:10] + "..." + val[len(val)-5:]
}

// WithEchoLogger 는 Echo 의 내장 로거와 에러 핸들러를 zap 기반으로 교체합니다.
// 에러 응답은 {"error": 메시지, "code": 코드} 형식입니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.Logger = NewEchoZapLogger(logger)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status, body := apperrors.ToHTTPResponse(err)

		apperrors.LogError(logger, err, "HTTP error",
			zap.Int("status", status),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
		)

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

// EchoZapLogger 는 echo.Logger 를 zap 으로 구현합니다.
type EchoZapLogger struct {
	Logger *zap.Logger
	prefix string
	level  log.Lvl
}

var _ echo.Logger = (*EchoZapLogger)(nil)

func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	return &EchoZapLogger{Logger: logger.Named("echo"), level: log.INFO}
}

func (l *EchoZapLogger) sugar() *zap.SugaredLogger {
	return l.Logger.Sugar()
}

func (l *EchoZapLogger) Output() io.Writer {
	return &zapWriter{logger: l.Logger}
}

// SetOutput 은 무시됩니다. 출력 대상은 zap 코어가 결정합니다.
func (l *EchoZapLogger) SetOutput(io.Writer) {}

func (l *EchoZapLogger) Level() log.Lvl { return l.level }

func (l *EchoZapLogger) SetLevel(v log.Lvl) { l.level = v }

func (l *EchoZapLogger) SetHeader(string) {}

func (l *EchoZapLogger) Prefix() string { return l.prefix }

func (l *EchoZapLogger) SetPrefix(p string) { l.prefix = p }

func (l *EchoZapLogger) Print(i ...interface{})                 { l.sugar().Info(i...) }
func (l *EchoZapLogger) Printf(format string, i ...interface{}) { l.sugar().Infof(format, i...) }
func (l *EchoZapLogger) Printj(j log.JSON)                      { l.logJSON(zapcore.InfoLevel, j) }
func (l *EchoZapLogger) Debug(i ...interface{})                 { l.sugar().Debug(i...) }
func (l *EchoZapLogger) Debugf(format string, i ...interface{}) { l.sugar().Debugf(format, i...) }
func (l *EchoZapLogger) Debugj(j log.JSON)                      { l.logJSON(zapcore.DebugLevel, j) }
func (l *EchoZapLogger) Info(i ...interface{})                  { l.sugar().Info(i...) }
func (l *EchoZapLogger) Infof(format string, i ...interface{})  { l.sugar().Infof(format, i...) }
func (l *EchoZapLogger) Infoj(j log.JSON)                       { l.logJSON(zapcore.InfoLevel, j) }
func (l *EchoZapLogger) Warn(i ...interface{})                  { l.sugar().Warn(i...) }
func (l *EchoZapLogger) Warnf(format string, i ...interface{})  { l.sugar().Warnf(format, i...) }
func (l *EchoZapLogger) Warnj(j log.JSON)                       { l.logJSON(zapcore.WarnLevel, j) }
func (l *EchoZapLogger) Error(i ...interface{})                 { l.sugar().Error(i...) }
func (l *EchoZapLogger) Errorf(format string, i ...interface{}) { l.sugar().Errorf(format, i...) }
func (l *EchoZapLogger) Errorj(j log.JSON)                      { l.logJSON(zapcore.ErrorLevel, j) }
func (l *EchoZapLogger) Fatal(i ...interface{})                 { l.sugar().Fatal(i...) }
func (l *EchoZapLogger) Fatalf(format string, i ...interface{}) { l.sugar().Fatalf(format, i...) }
func (l *EchoZapLogger) Fatalj(j log.JSON)                      { l.logJSON(zapcore.FatalLevel, j) }
func (l *EchoZapLogger) Panic(i ...interface{})                 { l.sugar().Panic(i...) }
func (l *EchoZapLogger) Panicf(format string, i ...interface{}) { l.sugar().Panicf(format, i...) }
func (l *EchoZapLogger) Panicj(j log.JSON)                      { l.logJSON(zapcore.PanicLevel, j) }

func (l *EchoZapLogger) logJSON(level zapcore.Level, j log.JSON) {
	if ce := l.Logger.Check(level, "json_message"); ce != nil {
		ce.Write(zap.Any("json", j))
	}
}

// zapWriter 는 io.Writer 로 들어온 내용을 한 줄씩 INFO 로 기록합니다.
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
