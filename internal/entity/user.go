package entity

import (
	"time"
)

// Role names seeded at startup. Role determines order visibility (see
// BonDeCommandeService.List).
const (
	RoleAdmin       = "Admin"
	RoleResponsible = "Responsible"
	RoleEmployee    = "Employee"
	RoleGerant      = "Gerant"
)

// User account with a single role and an optional employee profile.
type User struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	Username         string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Email            string    `json:"email" gorm:"size:128;not null;uniqueIndex"`
	PasswordHash     string    `json:"-" gorm:"size:128;not null"`
	RoleID           string    `json:"role_id" gorm:"size:32;not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"size:128"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Role     *Role     `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	Employee *Employee `json:"employee,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

type Role struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Name        string    `json:"name" gorm:"size:64;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// Employee is the order-owning identity of a user. It is created lazily the
// first time a user needs one (first bon de commande, or assignment to a
// Gerant), so most rows in users have no matching employee.
type Employee struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	UserID    string    `json:"user_id" gorm:"size:32;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Employee) TableName() string {
	return "employees"
}

// GerantEmployee links a Gerant user to an employee they supervise. The set
// is replaced wholesale on every assignment update.
type GerantEmployee struct {
	GerantID   string    `json:"gerant_id" gorm:"primaryKey;size:32"`
	EmployeeID string    `json:"employee_id" gorm:"primaryKey;size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (GerantEmployee) TableName() string {
	return "gerant_employees"
}
