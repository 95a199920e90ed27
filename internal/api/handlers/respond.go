package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/localplatform/homeroute-sub001/internal/api/dto/common"
	"github.com/localplatform/homeroute-sub001/internal/service"
)

func handleSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, common.NewSuccessResponse(data))
}

// handleMutation reports a persisted mutation, flagging changes that were
// saved but not applied to the live proxy.
func handleMutation(c *gin.Context, result *service.MutationResult) {
	resp := common.NewSuccessResponse(gin.H{
		"entity":   result.Entity,
		"revision": result.Revision,
	})
	resp.Applied = &result.Applied
	resp.ApplyError = result.ApplyError
	c.JSON(http.StatusOK, resp)
}

// handleError maps service errors to the JSON envelope. Domain failures
// (validation, conflicts, missing entities) are signaled in the body with a
// 200 status; only infrastructure failures get a 5xx.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusOK, common.NewErrorResponse(common.ErrCodeValidation, err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusOK, common.NewErrorResponse(common.ErrCodeConflict, err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusOK, common.NewErrorResponse(common.ErrCodeNotFound, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(common.ErrCodeInternalServer, err.Error()))
	}
}

// handleBindError reports malformed or invalid request bodies in the body,
// keeping the 200 contract for validation failures.
func handleBindError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, common.NewErrorResponse(common.ErrCodeValidation, err.Error()))
}
