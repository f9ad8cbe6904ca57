package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

const errorCodeKey = "error_code"

// statusOf 帳務錯誤分類對應 HTTP 狀態碼
func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientFunds, domain.KindInsufficientStock, domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError 回應 {"code": ..., "error": ...}
//
// 儲存層錯誤不把底層訊息外洩給呼叫端，只記在 log。
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == 0 {
		kind = domain.KindPersistenceFailure
	}
	status := statusOf(kind)
	c.Set(errorCodeKey, kind.String())

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"code": kind.String(), "error": msg})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	h.writeError(c, domain.InvalidArgument(msg))
}
