package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/verifychain/credentials-sdk-go/pkg/console"
	"github.com/verifychain/credentials-sdk-go/pkg/contract"
	"github.com/verifychain/credentials-sdk-go/pkg/qrcode"
	"github.com/verifychain/credentials-sdk-go/pkg/wallet"
)

type errorResponse struct {
	Error       string `json:"error"`
	Field       string `json:"field,omitempty"`
	OperationID string `json:"operation_id,omitempty"`
}

func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.console.State())
}

func (h *Handler) ListChains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chains": h.chains.Chains()})
}

func (h *Handler) Connect(c *gin.Context) {
	session, err := h.console.Connect(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "status": h.console.Status()})
}

func (h *Handler) Disconnect(c *gin.Context) {
	h.console.Disconnect()
	c.JSON(http.StatusOK, gin.H{"session": h.console.Session()})
}

func (h *Handler) RefreshOwner(c *gin.Context) {
	if err := h.console.RefreshOwner(c.Request.Context()); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("owner refresh failed")
		c.JSON(http.StatusBadGateway, errorResponse{Error: h.console.Status()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.console.Session()})
}

func (h *Handler) IssueOne(c *gin.Context) {
	var request console.IssueRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	result, err := h.console.IssueOne(c.Request.Context(), request)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": result, "status": h.console.Status()})
}

func (h *Handler) IssueBatch(c *gin.Context) {
	var request console.BatchIssueRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	result, err := h.console.IssueBatch(c.Request.Context(), request)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": result, "status": h.console.Status()})
}

func (h *Handler) LookupOne(c *gin.Context) {
	record, err := h.console.LookupOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": record})
}

func (h *Handler) ListRange(c *gin.Context) {
	result, err := h.console.ListRange(c.Request.Context(), c.DefaultQuery("from", "1"), c.DefaultQuery("to", "25"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "status": h.console.Status()})
}

func (h *Handler) TokenQRCode(c *gin.Context) {
	options, ok := qrOptions(c)
	if !ok {
		return
	}
	record, err := h.console.ReadToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	writePNG(c, record.MetadataURI, options)
}

func (h *Handler) TokenMetadata(c *gin.Context) {
	record, err := h.console.ReadToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	document, err := h.resolver.Resolve(c.Request.Context(), record.MetadataURI)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("uri", record.MetadataURI).Msg("metadata resolution failed")
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": record, "metadata": document})
}

func (h *Handler) QRCode(c *gin.Context) {
	options, ok := qrOptions(c)
	if !ok {
		return
	}
	writePNG(c, c.Query("uri"), options)
}

func qrOptions(c *gin.Context) (qrcode.Options, bool) {
	options := qrcode.Options{}
	if raw := c.Query("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "size must be an integer", Field: "size"})
			return options, false
		}
		options.Size = size
	}
	level, err := qrcode.ParseLevel(c.Query("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "level"})
		return options, false
	}
	options.Level = level
	return options, true
}

func writePNG(c *gin.Context, content string, options qrcode.Options) {
	image, err := qrcode.PNG(content, options)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", image)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	logger := zerolog.Ctx(c.Request.Context())

	var validationErr *console.ValidationError
	var operationErr *console.OperationError
	switch {
	case errors.Is(err, console.ErrNotConnected):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, console.ErrNotOwner):
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: validationErr.Message, Field: validationErr.Field})
	case errors.Is(err, wallet.ErrUserRejected):
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, console.ErrNoProvider), errors.Is(err, console.ErrNoTransactor):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.As(err, &operationErr):
		status := http.StatusBadGateway
		if contract.IsTokenNotFound(operationErr.Err) {
			status = http.StatusNotFound
		}
		logger.Warn().Err(operationErr.Err).Str("operation_id", operationErr.OperationID).Msg("console operation failed")
		c.JSON(status, errorResponse{Error: operationErr.Message, OperationID: operationErr.OperationID})
	case contract.IsTokenNotFound(err):
		c.JSON(http.StatusNotFound, errorResponse{Error: contract.Reason(err)})
	default:
		logger.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	}
}
