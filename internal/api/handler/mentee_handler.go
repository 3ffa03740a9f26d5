package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mentorlink/backend/internal/dto"
	"mentorlink/backend/internal/service"
	"mentorlink/backend/pkg/response"
)

// MenteeHandler mentee HTTP handlers
type MenteeHandler struct {
	menteeSvc   service.MenteeService
	uploadLimit int64
}

// NewMenteeHandler creates a MenteeHandler. uploadLimit caps the xlsx size in bytes.
func NewMenteeHandler(menteeSvc service.MenteeService, uploadLimit int64) *MenteeHandler {
	return &MenteeHandler{menteeSvc: menteeSvc, uploadLimit: uploadLimit}
}

// ListMentees paginated mentee list
// GET /api/v1/mentees
func (h *MenteeHandler) ListMentees(c *gin.Context) {
	var req dto.MenteeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "request validation failed", err.Error())
		return
	}

	mentees, total, err := h.menteeSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, mentees, total, req.GetPage(), req.GetPageSize())
}

// ImportMentees upload an xlsx of mentees; ?preview=true only validates
// POST /api/v1/mentees/import   multipart/form-data, field="file"
func (h *MenteeHandler) ImportMentees(c *gin.Context) {
	preview, _ := strconv.ParseBool(c.DefaultQuery("preview", "false"))

	if h.uploadLimit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadLimit)
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, 21006, "upload too large")
			return
		}
		response.BadRequest(c, 21001, "upload an xlsx file in field \"file\"")
		return
	}
	defer file.Close()

	rows, err := h.menteeSvc.ParseImportFile(file)
	if err != nil {
		h.handleMenteeError(c, err)
		return
	}

	if preview {
		response.OK(c, h.menteeSvc.Preview(rows))
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.menteeSvc.Import(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleMenteeError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *MenteeHandler) handleMenteeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 21002, "Excel file has no data rows")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 21003, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 21004, err.Error())
	case errors.Is(err, service.ErrImportUnreadable):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21005, "file is not a readable xlsx workbook", err.Error())
	default:
		response.InternalError(c)
	}
}
