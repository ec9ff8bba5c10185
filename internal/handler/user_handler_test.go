package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/config"
	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/middleware"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/Mo21aziz/erpexpress-sub000/internal/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.AccessTokenExpire = 3 * time.Hour
	cfg.JWT.RefreshTokenExpire = 168 * time.Hour

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, nil, cfg)
	h := NewUserHandler(services.User)

	api := testutil.AuthGroup(router, "/api")
	api.GET("/users", middleware.RequireRole(entity.RoleResponsible), h.List)
	api.POST("/users", middleware.RequireRole(entity.RoleResponsible), h.Create)
	api.GET("/users/employees", middleware.RequireRole(entity.RoleResponsible, entity.RoleGerant), h.ListEmployees)
	api.GET("/users/gerant/:id/employees", middleware.RequireRole(entity.RoleResponsible, entity.RoleGerant), h.GerantEmployees)
	api.PUT("/users/gerant/:id/employees", middleware.RequireRole(entity.RoleResponsible), h.ReplaceGerantEmployees)
	api.GET("/users/:id", h.Get)
	api.PUT("/users/:id", middleware.RequireRole(entity.RoleResponsible), h.Update)
	api.DELETE("/users/:id", middleware.RequireRole(entity.RoleResponsible), h.Delete)

	return db, router
}

func TestUserCRUDRequiresResponsible(t *testing.T) {
	db, router := setupUserTest(t)
	roles := testutil.SeedRoles(t, db)
	resp := testutil.SeedUser(t, db, "resp", "resp@test.com", roles[entity.RoleResponsible])
	emp := testutil.SeedUser(t, db, "emp", "emp@test.com", roles[entity.RoleEmployee])

	// Employee cannot list users.
	w := testutil.DoRequest(router, "GET", "/api/users", nil, tokenFor(emp))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for employee, got %d", w.Code)
	}

	// Responsible creates a user with an explicit role.
	w2 := testutil.DoRequest(router, "POST", "/api/users", map[string]interface{}{
		"username": "newbie",
		"email":    "newbie@test.com",
		"password": "secret123",
		"role_id":  roles[entity.RoleGerant].ID,
	}, tokenFor(resp))
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	role := data["role"].(map[string]interface{})
	if role["name"] != entity.RoleGerant {
		t.Errorf("Expected role Gerant, got %v", role["name"])
	}
	newbieID := data["id"].(string)

	// Role change via update.
	w3 := testutil.DoRequest(router, "PUT", "/api/users/"+newbieID, map[string]interface{}{
		"role_id": roles[entity.RoleEmployee].ID,
	}, tokenFor(resp))
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	role3 := data3["role"].(map[string]interface{})
	if role3["name"] != entity.RoleEmployee {
		t.Errorf("Expected role Employee after update, got %v", role3["name"])
	}

	// Delete.
	w4 := testutil.DoRequest(router, "DELETE", "/api/users/"+newbieID, nil, tokenFor(resp))
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	w5 := testutil.DoRequest(router, "GET", "/api/users/"+newbieID, nil, tokenFor(resp))
	if w5.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w5.Code)
	}
}

func TestUserListPagination(t *testing.T) {
	db, router := setupUserTest(t)
	roles := testutil.SeedRoles(t, db)
	resp := testutil.SeedUser(t, db, "resp", "resp@test.com", roles[entity.RoleResponsible])
	testutil.SeedUser(t, db, "w1", "w1@test.com", roles[entity.RoleEmployee])
	testutil.SeedUser(t, db, "w2", "w2@test.com", roles[entity.RoleEmployee])

	w := testutil.DoRequest(router, "GET", "/api/users?page=1&page_size=2", nil, tokenFor(resp))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got := len(data["users"].([]interface{})); got != 2 {
		t.Errorf("Expected 2 users on page 1, got %d", got)
	}
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 3 {
		t.Errorf("Expected total 3, got %v", pagination["total"])
	}
	if pagination["total_pages"].(float64) != 2 {
		t.Errorf("Expected 2 pages, got %v", pagination["total_pages"])
	}

	w2 := testutil.DoRequest(router, "GET", "/api/users?page=2&page_size=2", nil, tokenFor(resp))
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if got := len(data2["users"].([]interface{})); got != 1 {
		t.Errorf("Expected 1 user on page 2, got %d", got)
	}
}

func TestReplaceGerantEmployees(t *testing.T) {
	db, router := setupUserTest(t)
	roles := testutil.SeedRoles(t, db)
	resp := testutil.SeedUser(t, db, "resp", "resp@test.com", roles[entity.RoleResponsible])
	gerant := testutil.SeedUser(t, db, "gerant", "gerant@test.com", roles[entity.RoleGerant])
	worker1 := testutil.SeedUser(t, db, "w1", "w1@test.com", roles[entity.RoleEmployee])
	worker2 := testutil.SeedUser(t, db, "w2", "w2@test.com", roles[entity.RoleEmployee])

	emp1 := testutil.SeedEmployee(t, db, worker1)

	// Assign by a mix of employee id and bare user id; the second employee
	// profile is created on the fly.
	w := testutil.DoRequest(router, "PUT", "/api/users/gerant/"+gerant.ID+"/employees",
		map[string]interface{}{"employee_ids": []string{emp1.ID, worker2.ID}}, tokenFor(resp))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got := len(data["employees"].([]interface{})); got != 2 {
		t.Fatalf("Expected 2 assigned employees, got %d", got)
	}

	// Replacement is wholesale: reassigning only worker2 drops worker1.
	w2 := testutil.DoRequest(router, "PUT", "/api/users/gerant/"+gerant.ID+"/employees",
		map[string]interface{}{"employee_ids": []string{worker2.ID}}, tokenFor(resp))
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	employees := data2["employees"].([]interface{})
	if len(employees) != 1 {
		t.Fatalf("Expected 1 assigned employee after replacement, got %d", len(employees))
	}
	got := employees[0].(map[string]interface{})
	if got["user_id"] != worker2.ID {
		t.Errorf("Expected remaining assignment for %s, got %v", worker2.ID, got["user_id"])
	}

	// Assignments only attach to Gerant users.
	w3 := testutil.DoRequest(router, "PUT", "/api/users/gerant/"+worker1.ID+"/employees",
		map[string]interface{}{"employee_ids": []string{emp1.ID}}, tokenFor(resp))
	if w3.Code != http.StatusForbidden {
		t.Errorf("Expected 403 assigning to a non-Gerant, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestDeleteUserCascadesOrders(t *testing.T) {
	db, router := setupUserTest(t)
	roles := testutil.SeedRoles(t, db)
	resp := testutil.SeedUser(t, db, "resp", "resp@test.com", roles[entity.RoleResponsible])
	worker := testutil.SeedUser(t, db, "worker", "worker@test.com", roles[entity.RoleEmployee])
	emp := testutil.SeedEmployee(t, db, worker)

	cat := testutil.SeedCategory(t, db, "Legumes")
	bon := &entity.BonDeCommande{
		ID:         "bon-cascade-001",
		Code:       "BC-01",
		Status:     entity.BonStatusPending,
		EmployeeID: emp.ID,
		TargetDate: time.Now().AddDate(0, 0, 1),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(bon).Error; err != nil {
		t.Fatalf("Failed to seed bon: %v", err)
	}
	line := &entity.BonDeCommandeCategory{
		ID:              "line-cascade-001",
		BonDeCommandeID: bon.ID,
		CategoryID:      cat.ID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("Failed to seed line: %v", err)
	}

	w := testutil.DoRequest(router, "DELETE", "/api/users/"+worker.ID, nil, tokenFor(resp))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var bons, lines, emps int64
	db.Model(&entity.BonDeCommande{}).Count(&bons)
	db.Model(&entity.BonDeCommandeCategory{}).Count(&lines)
	db.Model(&entity.Employee{}).Count(&emps)
	if bons != 0 || lines != 0 || emps != 0 {
		t.Errorf("Expected full cascade, got bons=%d lines=%d employees=%d", bons, lines, emps)
	}
}
