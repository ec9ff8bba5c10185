package handler

import (
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	svc *service.CategoryService
}

func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"categories": categories})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, category)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	category, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	category, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, category)
}

// Delete removes a category. ?cascade=true also removes its articles and any
// order lines pointing at them.
func (h *CategoryHandler) Delete(c *gin.Context) {
	cascade := c.Query("cascade") == "true"
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), cascade); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
