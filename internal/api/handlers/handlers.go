// Package handlers implements the /api/v1 HTTP endpoints.
package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"bekal-bangsa/internal/pkg/common"
)

const uploadField = "file"

func respondError(c *gin.Context, err error) {
	status, body := common.ToResponse(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("request failed", fields...)
	} else {
		common.LogWarn("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, body)
}

func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// bindJSON decodes the body into req and runs its validation rules.
func bindJSON(c *gin.Context, req validation.Validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, common.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := req.Validate(); err != nil {
		respondError(c, common.NewValidationError(err.Error()))
		return false
	}
	return true
}

// readUpload returns the multipart file under field "file" with its bytes.
func readUpload(c *gin.Context) (*multipart.FileHeader, []byte, bool) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		respondError(c, common.NewValidationError("multipart field \"file\" is required"))
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, common.Wrap(common.ErrInvalidRequest, err))
		return nil, nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, common.Wrap(common.ErrInvalidImageSize, err))
		} else {
			respondError(c, common.Wrap(common.ErrInvalidRequest, err))
		}
		return nil, nil, false
	}
	return fh, data, true
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError(name + " must be a positive integer")
	}
	return id, nil
}

// optionalFloat parses a query value. ok is false when the parameter is absent.
func optionalFloat(c *gin.Context, name string) (v float64, ok bool, err error) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, common.NewValidationError(name + " must be a number")
	}
	return v, true, nil
}
