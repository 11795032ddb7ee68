package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/O-HAM-MA/apartner-sub000/pkg/errno"
)

// Response is the common JSON envelope for all endpoints.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope with the given payload.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Failed maps a business error onto the envelope. Unknown errors become an
// internal server error so causes never leak to clients.
func Failed(ctx *gin.Context, err error) {
	e, msg := resolve(err)
	ctx.JSON(httpStatus(e), Response{
		Code:    e.Code,
		Message: msg,
	})
}

// FailedWithStatus is Failed with an explicit HTTP status override.
func FailedWithStatus(ctx *gin.Context, err error, status int) {
	e, msg := resolve(err)
	ctx.JSON(status, Response{
		Code:    e.Code,
		Message: msg,
	})
}

func resolve(err error) (*errno.Errno, string) {
	var biz errno.BizError
	if errors.As(err, &biz) {
		return biz.Errno(), biz.Message()
	}
	var e *errno.Errno
	if errors.As(err, &e) {
		return e, e.Message
	}
	return errno.ErrInternalServer, errno.ErrInternalServer.Message
}

func httpStatus(e *errno.Errno) int {
	switch {
	case e.Code >= 400 && e.Code < 500:
		return e.Code
	case e.Code >= 500:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
