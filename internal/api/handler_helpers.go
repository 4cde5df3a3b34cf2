package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kawafuchieirin/milestone-manager/internal"
	"github.com/kawafuchieirin/milestone-manager/internal/response"
	"github.com/kawafuchieirin/milestone-manager/internal/service"
	"github.com/kawafuchieirin/milestone-manager/internal/storage"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(http.StatusOK, response.Success(data, meta))
}

func HandleCreated(c *gin.Context, logger internal.Logger, data interface{}) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Created", requestID)
	c.JSON(http.StatusCreated, response.Success(data, nil))
}

// statusForError maps storage and service sentinel errors to HTTP codes;
// anything unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrOrderMismatch),
		errors.Is(err, service.ErrDateRange),
		errors.Is(err, service.ErrDueDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func currentUser(c *gin.Context) *internal.User {
	return c.MustGet("user").(*internal.User)
}
