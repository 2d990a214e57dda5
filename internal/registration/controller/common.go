package controller

import (
	"strconv"
	"time"

	"matholymp/internal/datetimeutil"
	pkgerrors "matholymp/pkg/errors"

	"github.com/gin-gonic/gin"
)

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// optionalDate parses a YYYY-MM-DD field; "" means unset.
func optionalDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := datetimeutil.DateFromYMDISO(field, v)
	if err != nil {
		return nil, pkgerrors.ValidationError(field, err.Error())
	}
	return &t, nil
}

// optionalTime parses an HH:MM field; "" means unset.
func optionalTime(field, v string) (*datetimeutil.TimeOfDay, error) {
	if v == "" {
		return nil, nil
	}
	t, err := datetimeutil.TimeFromHHMMISO(field, v)
	if err != nil {
		return nil, pkgerrors.ValidationError(field, err.Error())
	}
	return &t, nil
}
