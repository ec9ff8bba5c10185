package handler

import (
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type BonDeCommandeHandler struct {
	svc *service.BonDeCommandeService
}

func NewBonDeCommandeHandler(svc *service.BonDeCommandeService) *BonDeCommandeHandler {
	return &BonDeCommandeHandler{svc: svc}
}

// List returns the bons visible to the caller under their role scope.
func (h *BonDeCommandeHandler) List(c *gin.Context) {
	filters := map[string]string{
		"status": c.Query("status"),
	}

	bons, err := h.svc.List(c.Request.Context(), GetUserID(c), filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"bons_de_commande": bons})
}

func (h *BonDeCommandeHandler) Get(c *gin.Context) {
	bon, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, bon)
}

// Upsert creates or merges into the caller's bon for the target day.
func (h *BonDeCommandeHandler) Upsert(c *gin.Context) {
	var req service.UpsertBonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	bon, err := h.svc.Upsert(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, bon)
}

func (h *BonDeCommandeHandler) Update(c *gin.Context) {
	var req service.UpdateBonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	bon, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, bon)
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus confirms or re-flags a bon. Confirmation runs the catalog
// completeness sweep before the flip.
func (h *BonDeCommandeHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	bon, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, bon)
}

// UpdateLine edits the quantities of a single order line.
func (h *BonDeCommandeHandler) UpdateLine(c *gin.Context) {
	var req service.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	line, err := h.svc.UpdateLine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, line)
}

func (h *BonDeCommandeHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
