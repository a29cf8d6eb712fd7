package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// Route actions reported in the response envelope.
const (
	actionSave    = "Save-Faq"
	actionReply   = "Reply-To-Question"
	actionGet     = "Get-SingleFaq"
	actionFilter  = "Get-FilteredFaq"
	actionDelete  = "Delete-Faq"
	actionListAll = "Get-AllFaq"
)

// FAQHandler wires the HTTP transport to the FAQ service.
type FAQHandler struct {
	svc    faq.Service
	logger *slog.Logger
}

// NewFAQHandler constructs the FAQ HTTP handler.
func NewFAQHandler(svc faq.Service, logger *slog.Logger) *FAQHandler {
	return &FAQHandler{
		svc:    svc,
		logger: logger.With("component", "http.faq"),
	}
}

// Save stores a new question and notifies the eligible doctors.
func (h *FAQHandler) Save(c *gin.Context) {
	var req faq.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reportError(c, h.logger, actionSave, bindError(err))
		return
	}
	resp, err := h.svc.Save(c.Request.Context(), req)
	if err != nil {
		reportError(c, h.logger, actionSave, err)
		return
	}
	reportSuccess(c, h.logger, actionSave, levelSuccess, msgSaved, resp)
}

// Reply appends a doctor's answer. The requester comes from the access token.
func (h *FAQHandler) Reply(c *gin.Context) {
	var req faq.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reportError(c, h.logger, actionReply, bindError(err))
		return
	}
	req.RequesterID = requesterID(c)
	resp, err := h.svc.Reply(c.Request.Context(), req)
	if err != nil {
		reportError(c, h.logger, actionReply, err)
		return
	}
	reportSuccess(c, h.logger, actionReply, levelSuccess, msgReplySent, resp)
}

// Get returns one question by the _id query parameter, or null.
func (h *FAQHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Query("_id"))
	if err != nil {
		reportError(c, h.logger, actionGet, err)
		return
	}
	var data any
	if view != nil {
		data = view
	}
	reportSuccess(c, h.logger, actionGet, levelSuccess, msgFetched, data)
}

// Filter lists a patient's own active questions.
func (h *FAQHandler) Filter(c *gin.Context) {
	var req faq.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reportError(c, h.logger, actionFilter, bindError(err))
		return
	}
	resp, err := h.svc.ListFiltered(c.Request.Context(), req)
	if err != nil {
		reportError(c, h.logger, actionFilter, err)
		return
	}
	reportSuccess(c, h.logger, actionFilter, levelSuccess, msgFetched, resp)
}

// Delete soft deletes a question and returns its state before the update.
func (h *FAQHandler) Delete(c *gin.Context) {
	var req faq.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reportError(c, h.logger, actionDelete, bindError(err))
		return
	}
	before, err := h.svc.Delete(c.Request.Context(), req)
	if err != nil {
		reportError(c, h.logger, actionDelete, err)
		return
	}
	var data any
	if before != nil {
		data = before
	}
	reportSuccess(c, h.logger, actionDelete, levelSuccess, msgDeleted, data)
}

// ListAll returns every non-deleted question with user and doctor details.
func (h *FAQHandler) ListAll(c *gin.Context) {
	views, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		reportError(c, h.logger, actionListAll, err)
		return
	}
	reportSuccess(c, h.logger, actionListAll, levelListing, msgFetched, views)
}
