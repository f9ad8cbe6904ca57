package rest

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// 接受的日期格式 (前端會送 ISO 字串或單純日期)
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parsePage 讀取 page / pageSize，缺少任一個就不分頁
func (h *Handler) parsePage(c *gin.Context) (domain.Page, bool) {
	var page domain.Page
	var err error
	if v := c.Query("page"); v != "" {
		if page.Page, err = strconv.Atoi(v); err != nil {
			h.badRequest(c, "invalid page or pageSize values, numeric values are expected")
			return page, false
		}
	}
	if v := c.Query("pageSize"); v != "" {
		if page.PageSize, err = strconv.Atoi(v); err != nil {
			h.badRequest(c, "invalid page or pageSize values, numeric values are expected")
			return page, false
		}
	}
	return page, true
}

// parsePeriod 讀取 startDate / endDate
func (h *Handler) parsePeriod(c *gin.Context) (domain.Period, bool) {
	var period domain.Period
	var err error
	if v := c.Query("startDate"); v != "" {
		if period.Start, err = parseDate(v); err != nil {
			h.badRequest(c, "invalid startDate")
			return period, false
		}
	}
	if v := c.Query("endDate"); v != "" {
		if period.End, err = parseDate(v); err != nil {
			h.badRequest(c, "invalid endDate")
			return period, false
		}
	}
	return period, true
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
