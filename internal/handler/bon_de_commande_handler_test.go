package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/config"
	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/Mo21aziz/erpexpress-sub000/internal/service"
	"github.com/Mo21aziz/erpexpress-sub000/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupBonTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.AccessTokenExpire = 3 * time.Hour
	cfg.JWT.RefreshTokenExpire = 168 * time.Hour
	cfg.JWT.Issuer = "erpexpress-test"

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, nil, cfg)
	h := NewBonDeCommandeHandler(services.BonDeCommande)

	api := testutil.AuthGroup(router, "/api")
	api.GET("/bon-de-commande", h.List)
	api.POST("/bon-de-commande", h.Upsert)
	api.PUT("/bon-de-commande/category/:id", h.UpdateLine)
	api.GET("/bon-de-commande/:id", h.Get)
	api.PUT("/bon-de-commande/:id", h.Update)
	api.PUT("/bon-de-commande/:id/status", h.UpdateStatus)
	api.DELETE("/bon-de-commande/:id", h.Delete)

	return db, router
}

func tokenFor(user *entity.User) string {
	return testutil.GenerateTestToken(user.ID, user.Email, user.Role.Name, user.RoleID)
}

func TestBonUpsertCreatesAndMerges(t *testing.T) {
	db, router := setupBonTest(t)
	roles := testutil.SeedRoles(t, db)
	user := testutil.SeedUser(t, db, "marc", "marc@test.com", roles[entity.RoleEmployee])
	token := tokenFor(user)

	cat := testutil.SeedCategory(t, db, "Legumes")
	art := testutil.SeedArticle(t, db, "Carottes", cat.ID, testutil.IntPtr(0))

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"category_id":         cat.ID,
				"article_id":          art.ID,
				"quantite_a_stocker":  5,
				"quantite_a_demander": 2,
			},
		},
	}

	w := testutil.DoRequest(router, "POST", "/api/bon-de-commande", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["code"] != "BC-01" {
		t.Errorf("Expected code BC-01, got %v", data["code"])
	}
	if data["status"] != entity.BonStatusPending {
		t.Errorf("Expected status %q, got %v", entity.BonStatusPending, data["status"])
	}
	bonID := data["id"].(string)
	lines := data["lines"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	// Same payload again: no new bon, no new line, quantities unchanged.
	w2 := testutil.DoRequest(router, "POST", "/api/bon-de-commande", body, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data2["id"] != bonID {
		t.Errorf("Expected same bon %s, got %v", bonID, data2["id"])
	}
	lines2 := data2["lines"].([]interface{})
	if len(lines2) != 1 {
		t.Fatalf("Expected 1 line after idempotent resend, got %d", len(lines2))
	}

	// Changed quantity: same line updated in place.
	body["items"].([]map[string]interface{})[0]["quantite_a_stocker"] = 8
	w3 := testutil.DoRequest(router, "POST", "/api/bon-de-commande", body, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	lines3 := data3["lines"].([]interface{})
	if len(lines3) != 1 {
		t.Fatalf("Expected 1 line after quantity change, got %d", len(lines3))
	}
	line := lines3[0].(map[string]interface{})
	if line["quantite_a_stocker"].(float64) != 8 {
		t.Errorf("Expected quantite_a_stocker 8, got %v", line["quantite_a_stocker"])
	}
}

func TestBonUpsertArticleWriteReplacesCategoryLine(t *testing.T) {
	db, router := setupBonTest(t)
	roles := testutil.SeedRoles(t, db)
	user := testutil.SeedUser(t, db, "julie", "julie@test.com", roles[entity.RoleEmployee])
	token := tokenFor(user)

	cat := testutil.SeedCategory(t, db, "Boissons")
	art := testutil.SeedArticle(t, db, "Eau", cat.ID, testutil.IntPtr(0))

	// Coarse category-level write first.
	w := testutil.DoRequest(router, "POST", "/api/bon-de-commande", map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": cat.ID, "quantite_a_stocker": 3},
		},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Article-level write supersedes it.
	w2 := testutil.DoRequest(router, "POST", "/api/bon-de-commande", map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": cat.ID, "article_id": art.ID, "quantite_a_stocker": 4},
		},
	}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	lines := data["lines"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("Expected article line to replace category line, got %d lines", len(lines))
	}
	line := lines[0].(map[string]interface{})
	if line["article_id"] != art.ID {
		t.Errorf("Expected remaining line to reference article %s, got %v", art.ID, line["article_id"])
	}
}

func TestBonConfirmSweepAndImmutability(t *testing.T) {
	db, router := setupBonTest(t)
	roles := testutil.SeedRoles(t, db)
	user := testutil.SeedUser(t, db, "paul", "paul@test.com", roles[entity.RoleEmployee])
	token := tokenFor(user)

	cat1 := testutil.SeedCategory(t, db, "Legumes")
	cat2 := testutil.SeedCategory(t, db, "Fruits")
	art1 := testutil.SeedArticle(t, db, "Carottes", cat1.ID, testutil.IntPtr(0))
	testutil.SeedArticle(t, db, "Pommes", cat2.ID, testutil.IntPtr(1))

	w := testutil.DoRequest(router, "POST", "/api/bon-de-commande", map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": cat1.ID, "article_id": art1.ID, "quantite_a_demander": 6},
		},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	bonID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Confirm: the sweep must add a line for the uncovered category and the
	// uncovered article.
	w2 := testutil.DoRequest(router, "PUT", "/api/bon-de-commande/"+bonID+"/status",
		map[string]interface{}{"status": entity.BonStatusConfirmed}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["status"] != entity.BonStatusConfirmed {
		t.Errorf("Expected status %q, got %v", entity.BonStatusConfirmed, data["status"])
	}
	lines := data["lines"].([]interface{})
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines after sweep, got %d", len(lines))
	}
	zeroed := 0
	for _, l := range lines {
		lm := l.(map[string]interface{})
		if lm["quantite_a_stocker"].(float64) == 0 && lm["quantite_a_demander"].(float64) == 0 {
			zeroed++
		}
	}
	if zeroed != 2 {
		t.Errorf("Expected 2 zero-quantity sweep lines, got %d", zeroed)
	}

	// A confirmed bon rejects status changes and further merges.
	w3 := testutil.DoRequest(router, "PUT", "/api/bon-de-commande/"+bonID+"/status",
		map[string]interface{}{"status": entity.BonStatusPending}, token)
	if w3.Code != http.StatusConflict {
		t.Errorf("Expected 409 on re-flip, got %d: %s", w3.Code, w3.Body.String())
	}

	w4 := testutil.DoRequest(router, "POST", "/api/bon-de-commande", map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": cat1.ID, "article_id": art1.ID, "quantite_a_demander": 9},
		},
	}, token)
	if w4.Code != http.StatusConflict {
		t.Errorf("Expected 409 on merge into confirmed bon, got %d: %s", w4.Code, w4.Body.String())
	}
}

func TestBonUpdateLineGuardedByStatus(t *testing.T) {
	db, router := setupBonTest(t)
	roles := testutil.SeedRoles(t, db)
	user := testutil.SeedUser(t, db, "nina", "nina@test.com", roles[entity.RoleEmployee])
	token := tokenFor(user)

	cat := testutil.SeedCategory(t, db, "Epices")

	w := testutil.DoRequest(router, "POST", "/api/bon-de-commande", map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": cat.ID, "quantite_a_stocker": 1},
		},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	bonID := data["id"].(string)
	lineID := data["lines"].([]interface{})[0].(map[string]interface{})["id"].(string)

	// Pending bon: line edit goes through.
	w2 := testutil.DoRequest(router, "PUT", "/api/bon-de-commande/category/"+lineID,
		map[string]interface{}{"quantite_a_stocker": 7, "quantite_a_demander": 4}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	line := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if line["quantite_a_demander"].(float64) != 4 {
		t.Errorf("Expected quantite_a_demander 4, got %v", line["quantite_a_demander"])
	}

	// Confirmed bon: line edit refused.
	testutil.DoRequest(router, "PUT", "/api/bon-de-commande/"+bonID+"/status",
		map[string]interface{}{"status": entity.BonStatusConfirmed}, token)
	w3 := testutil.DoRequest(router, "PUT", "/api/bon-de-commande/category/"+lineID,
		map[string]interface{}{"quantite_a_stocker": 9}, token)
	if w3.Code != http.StatusConflict {
		t.Errorf("Expected 409 on confirmed line edit, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestBonListRoleScopes(t *testing.T) {
	db, router := setupBonTest(t)
	roles := testutil.SeedRoles(t, db)

	responsible := testutil.SeedUser(t, db, "resp", "resp@test.com", roles[entity.RoleResponsible])
	gerant := testutil.SeedUser(t, db, "gerant", "gerant@test.com", roles[entity.RoleGerant])
	worker := testutil.SeedUser(t, db, "worker", "worker@test.com", roles[entity.RoleEmployee])
	other := testutil.SeedUser(t, db, "other", "other@test.com", roles[entity.RoleEmployee])

	workerEmp := testutil.SeedEmployee(t, db, worker)
	otherEmp := testutil.SeedEmployee(t, db, other)

	// The gerant supervises only worker.
	if err := db.Create(&entity.GerantEmployee{
		GerantID:   gerant.ID,
		EmployeeID: workerEmp.ID,
		CreatedAt:  time.Now(),
	}).Error; err != nil {
		t.Fatalf("Failed to assign employee to gerant: %v", err)
	}

	seedBon := func(code string, employeeID string, createdAt time.Time) {
		bon := &entity.BonDeCommande{
			ID:         uuid.New().String()[:32],
			Code:       code,
			Status:     entity.BonStatusPending,
			EmployeeID: employeeID,
			TargetDate: createdAt.AddDate(0, 0, 1),
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
		}
		if err := db.Create(bon).Error; err != nil {
			t.Fatalf("Failed to seed bon %s: %v", code, err)
		}
	}

	now := time.Now()
	seedBon("BC-01", workerEmp.ID, now.Add(-1*time.Hour))
	seedBon("BC-02", workerEmp.ID, now.Add(-72*time.Hour)) // outside the 48h window
	seedBon("BC-03", otherEmp.ID, now.Add(-1*time.Hour))   // not assigned to the gerant

	listCodes := func(token string) map[string]bool {
		w := testutil.DoRequest(router, "GET", "/api/bon-de-commande", nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		data := testutil.ParseResponse(w)["data"].(map[string]interface{})
		items := data["bons_de_commande"].([]interface{})
		codes := make(map[string]bool, len(items))
		for _, it := range items {
			codes[it.(map[string]interface{})["code"].(string)] = true
		}
		return codes
	}

	// Responsible sees everything.
	codes := listCodes(tokenFor(responsible))
	if len(codes) != 3 {
		t.Errorf("Expected responsible to see 3 bons, got %v", codes)
	}

	// Gerant sees only the assigned employee's recent bons.
	codes = listCodes(tokenFor(gerant))
	if len(codes) != 1 || !codes["BC-01"] {
		t.Errorf("Expected gerant to see only BC-01, got %v", codes)
	}

	// An employee sees only their own, with no time limit.
	codes = listCodes(tokenFor(worker))
	if len(codes) != 2 || !codes["BC-01"] || !codes["BC-02"] {
		t.Errorf("Expected worker to see BC-01 and BC-02, got %v", codes)
	}

	// A user with no employee profile sees an empty list.
	noProfile := testutil.SeedUser(t, db, "fresh", "fresh@test.com", roles[entity.RoleEmployee])
	codes = listCodes(tokenFor(noProfile))
	if len(codes) != 0 {
		t.Errorf("Expected empty list for user without employee profile, got %v", codes)
	}
}

func TestBonCodeSequence(t *testing.T) {
	db, router := setupBonTest(t)
	roles := testutil.SeedRoles(t, db)
	first := testutil.SeedUser(t, db, "anne", "anne@test.com", roles[entity.RoleEmployee])
	second := testutil.SeedUser(t, db, "luc", "luc@test.com", roles[entity.RoleEmployee])

	cat := testutil.SeedCategory(t, db, "Desserts")
	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": cat.ID, "quantite_a_stocker": 1},
		},
	}

	w := testutil.DoRequest(router, "POST", "/api/bon-de-commande", body, tokenFor(first))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	code1 := testutil.ParseResponse(w)["data"].(map[string]interface{})["code"]

	w2 := testutil.DoRequest(router, "POST", "/api/bon-de-commande", body, tokenFor(second))
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	code2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})["code"]

	if code1 != "BC-01" || code2 != "BC-02" {
		t.Errorf("Expected BC-01 then BC-02, got %v and %v", code1, code2)
	}
}
