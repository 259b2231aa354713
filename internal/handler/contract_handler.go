package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/service"
	"github.com/prohmpiriya/event-planner/pkg/response"
)

// contractFormField is the multipart field holding the uploaded file
const contractFormField = "file"

// ContractHandler handles contract document uploads and lookups
type ContractHandler struct {
	contractService service.ContractService
	maxSize         int64
}

// NewContractHandler creates a new ContractHandler. maxSize bounds the
// request body in bytes, 0 meaning unbounded.
func NewContractHandler(contractService service.ContractService, maxSize int64) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		maxSize:         maxSize,
	}
}

type uploadResponse struct {
	Message string `json:"message"`
	domain.ContractDocument
}

// Upload handles POST /events/:id/contract
func (h *ContractHandler) Upload(c *gin.Context) {
	if h.maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize)
	}

	header, err := c.FormFile(contractFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "File too large")
			return
		}
		response.BadRequest(c, "No file provided")
		return
	}

	file, err := header.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer file.Close()

	doc, err := h.contractService.UploadContract(c.Request.Context(), c.Param("id"), header.Filename, file, actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, uploadResponse{Message: "File uploaded successfully", ContractDocument: *doc})
}

// Get handles GET /events/:id/contract
func (h *ContractHandler) Get(c *gin.Context) {
	doc, err := h.contractService.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, doc)
}
