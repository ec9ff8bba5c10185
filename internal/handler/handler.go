package handler

import (
	"errors"
	"strconv"

	"github.com/Mo21aziz/erpexpress-sub000/internal/config"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth          *AuthHandler
	User          *UserHandler
	Category      *CategoryHandler
	Article       *ArticleHandler
	BonDeCommande *BonDeCommandeHandler
}

func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:          NewAuthHandler(svc.Auth, cfg),
		User:          NewUserHandler(svc.User),
		Category:      NewCategoryHandler(svc.Category),
		Article:       NewArticleHandler(svc.Article),
		BonDeCommande: NewBonDeCommandeHandler(svc.BonDeCommande),
	}
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error derives the HTTP status from the leading digits of the app code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// handleServiceError translates the known sentinels to their HTTP shapes;
// anything unrecognized is a 500.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, repository.ErrNumeroTaken):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrOrderConfirmed):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrCategoryNotEmpty):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrNotGerant):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID reads the authenticated user id set by the JWT middleware.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination reads page/page_size query params with sane bounds.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
