package handler

import (
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	svc *service.ArticleService
}

func NewArticleHandler(svc *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

func (h *ArticleHandler) List(c *gin.Context) {
	filters := map[string]string{
		"category_id": c.Query("category_id"),
		"type":        c.Query("type"),
		"search":      c.Query("search"),
	}

	articles, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"articles": articles})
}

func (h *ArticleHandler) ListByCategory(c *gin.Context) {
	articles, err := h.svc.ListByCategory(c.Request.Context(), c.Param("categoryId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"articles": articles})
}

func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, article)
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var req service.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	article, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, article)
}

func (h *ArticleHandler) Update(c *gin.Context) {
	var req service.ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	article, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, article)
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
