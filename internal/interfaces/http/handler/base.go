// Package handler implements the console BFF endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/apiclient"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/interfaces/http/dto"
	"github.com/multipos/console/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// BindJSON decodes the body, answering 400 itself on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
			return false
		}
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// HandleError maps domain, upstream and transport errors onto the
// envelope. Field errors travel in error.details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)
	log := logger.L(c.Request.Context())

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		code := dto.UpstreamStatusCode(apiErr.StatusCode)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			log.Warn("upstream error", zap.Int("upstream_status", apiErr.StatusCode),
				zap.String("upstream_request_id", apiErr.RequestID), zap.Error(err))
		}
		resp := dto.NewErrorResponseWithRequestID(code, apiErr.UserMessage(), requestID)
		resp.Error.Details = apiErr.Fields
		c.JSON(status, resp)
		return
	}

	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn("upstream unavailable", zap.Error(err))
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, "The POS service is not reachable")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		if len(domainErr.Fields) > 0 {
			code = dto.ErrCodeValidation
		}
		resp := dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
		resp.Error.Details = domainErr.Fields
		c.JSON(dto.GetHTTPStatus(code), resp)
		return
	}

	log.Error("unhandled error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// session returns the caller and workspace put there by Authenticate.
func (h *BaseHandler) session(c *gin.Context) (identity.Principal, *workspace.Workspace, bool) {
	p, ok := middleware.GetPrincipal(c)
	ws := middleware.GetWorkspace(c)
	if !ok || ws == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return identity.Principal{}, nil, false
	}
	return p, ws, true
}

// allow checks a capability inline, for routes whose resource is only
// known after a lookup.
func (h *BaseHandler) allow(c *gin.Context, p identity.Principal, ws *workspace.Workspace, res identity.Resource, act identity.Action) bool {
	if p.Can(res, act, ws.Flags(c.Request.Context())) {
		return true
	}
	h.Forbidden(c, "Your role cannot "+string(act)+" "+string(res))
	return false
}
