package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/johnquangdev/meeting-segmenter/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Client errors are logged at Warn, everything else at Error.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		appErr = errors.ErrInternal(err)
	}

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode < http.StatusInternalServerError {
			logger.Warn("http.response.error", fields...)
		} else {
			logger.Error("http.response.error", fields...)
		}
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}
