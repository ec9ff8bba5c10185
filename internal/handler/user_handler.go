package handler

import (
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) List(c *gin.Context) {
	filters := map[string]string{
		"role":   c.Query("role"),
		"search": c.Query("search"),
	}
	page, pageSize := GetPagination(c)

	users, total, err := h.svc.List(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"users":      users,
		"pagination": NewPagination(page, pageSize, total),
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"roles": roles})
}

func (h *UserHandler) ListEmployees(c *gin.Context) {
	employees, err := h.svc.ListEmployees(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"employees": employees})
}

// GerantEmployees lists the employees assigned to a Gerant user.
func (h *UserHandler) GerantEmployees(c *gin.Context) {
	employees, err := h.svc.GerantEmployees(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"employees": employees})
}

type ReplaceGerantEmployeesRequest struct {
	EmployeeIDs []string `json:"employee_ids" binding:"required"`
}

// ReplaceGerantEmployees rewrites a Gerant's assignment set.
func (h *UserHandler) ReplaceGerantEmployees(c *gin.Context) {
	var req ReplaceGerantEmployeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body")
		return
	}

	employees, err := h.svc.ReplaceGerantEmployees(c.Request.Context(), c.Param("id"), req.EmployeeIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"employees": employees})
}
