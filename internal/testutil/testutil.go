package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_erp"
	JWTSecret  = "erpexpress-test-jwt-secret-2025"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "erp")
	password := getEnv("DB_PASSWORD", "erp123")
	dbname := getEnv("DB_NAME", "erpexpress")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Open with search_path in the DSN so all pooled connections use the
	// test schema.
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Employee{},
		&entity.GerantEmployee{},
		&entity.Category{},
		&entity.Article{},
		&entity.BonDeCommande{},
		&entity.BonDeCommandeCategory{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, email, role, roleID string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID,
		"uid":     userID,
		"email":   email,
		"role":    role,
		"role_id": roleID,
		"iss":     "erpexpress-test",
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
		"jti":     fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a generic map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedRoles creates the four built-in roles and returns them by name.
func SeedRoles(t *testing.T, db *gorm.DB) map[string]*entity.Role {
	t.Helper()
	roles := make(map[string]*entity.Role)
	for _, name := range []string{
		entity.RoleAdmin,
		entity.RoleResponsible,
		entity.RoleEmployee,
		entity.RoleGerant,
	} {
		role := &entity.Role{
			ID:        uuid.New().String()[:32],
			Name:      name,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.Create(role).Error; err != nil {
			t.Fatalf("Failed to seed role %s: %v", name, err)
		}
		roles[name] = role
	}
	return roles
}

// SeedUser creates a user with the given role and the password "secret123".
func SeedUser(t *testing.T, db *gorm.DB, username, email string, role *entity.Role) *entity.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       role.ID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	user.Role = role
	return user
}

// SeedEmployee creates an employee profile for a user.
func SeedEmployee(t *testing.T, db *gorm.DB, user *entity.User) *entity.Employee {
	t.Helper()
	emp := &entity.Employee{
		ID:        uuid.New().String()[:32],
		UserID:    user.ID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(emp).Error; err != nil {
		t.Fatalf("Failed to seed employee for %s: %v", user.Username, err)
	}
	return emp
}

// SeedCategory creates a catalog category.
func SeedCategory(t *testing.T, db *gorm.DB, name string) *entity.Category {
	t.Helper()
	cat := &entity.Category{
		ID:        uuid.New().String()[:32],
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("Failed to seed category %s: %v", name, err)
	}
	return cat
}

// SeedArticle creates an article, optionally at a numero position.
func SeedArticle(t *testing.T, db *gorm.DB, name string, categoryID string, numero *int) *entity.Article {
	t.Helper()
	article := &entity.Article{
		ID:         uuid.New().String()[:32],
		Name:       name,
		Type:       entity.ArticleTypeCatering,
		Numero:     numero,
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(article).Error; err != nil {
		t.Fatalf("Failed to seed article %s: %v", name, err)
	}
	return article
}

// IntPtr is a convenience for numero literals in tests.
func IntPtr(v int) *int {
	return &v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
