package repository

import (
	"testing"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/testutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedBonWithCode(t *testing.T, db *gorm.DB, code, employeeID string, targetDate time.Time) *entity.BonDeCommande {
	t.Helper()
	bon := &entity.BonDeCommande{
		ID:         uuid.New().String()[:32],
		Code:       code,
		Status:     entity.BonStatusPending,
		EmployeeID: employeeID,
		TargetDate: targetDate,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(bon).Error; err != nil {
		t.Fatalf("Failed to seed bon %s: %v", code, err)
	}
	return bon
}

func TestGenerateCodeSequence(t *testing.T) {
	db := testutil.SetupTestDB(t)

	code, err := GenerateCode(db)
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if code != "BC-01" {
		t.Errorf("Expected first code BC-01, got %s", code)
	}

	seedBonWithCode(t, db, "BC-01", "emp-1", time.Now())
	seedBonWithCode(t, db, "BC-02", "emp-2", time.Now())

	code, err = GenerateCode(db)
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if code != "BC-03" {
		t.Errorf("Expected BC-03, got %s", code)
	}
}

// Lexicographic MAX would pick BC-99 over BC-100; the generator must not.
func TestGenerateCodePastNinetyNine(t *testing.T) {
	db := testutil.SetupTestDB(t)

	seedBonWithCode(t, db, "BC-99", "emp-1", time.Now())
	seedBonWithCode(t, db, "BC-100", "emp-2", time.Now())

	code, err := GenerateCode(db)
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if code != "BC-101" {
		t.Errorf("Expected BC-101, got %s", code)
	}
}

func TestFindByEmployeeAndDay(t *testing.T) {
	db := testutil.SetupTestDB(t)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	seedBonWithCode(t, db, "BC-01", "emp-1", day.Add(10*time.Hour))
	seedBonWithCode(t, db, "BC-02", "emp-1", day.AddDate(0, 0, 1).Add(8*time.Hour))
	seedBonWithCode(t, db, "BC-03", "emp-2", day.Add(9*time.Hour))

	bon, err := FindByEmployeeAndDay(db, "emp-1", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("FindByEmployeeAndDay failed: %v", err)
	}
	if bon.Code != "BC-01" {
		t.Errorf("Expected BC-01, got %s", bon.Code)
	}

	_, err = FindByEmployeeAndDay(db, "emp-1", day.AddDate(0, 0, 2), day.AddDate(0, 0, 3))
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound outside the window, got %v", err)
	}
}
