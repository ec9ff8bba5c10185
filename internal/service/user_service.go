package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"github.com/Mo21aziz/erpexpress-sub000/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
	empRepo  *repository.EmployeeRepository
}

func NewUserService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, empRepo *repository.EmployeeRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		empRepo:  empRepo,
	}
}

func (s *UserService) List(ctx context.Context, filters map[string]string, page, pageSize int) ([]entity.User, int64, error) {
	return s.userRepo.List(ctx, filters, page, pageSize)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   string `json:"role_id" binding:"required"`
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	if _, err := s.roleRepo.FindByID(ctx, req.RoleID); err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		RoleID:       req.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.userRepo.FindByID(ctx, user.ID)
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"role_id"`
}

func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if req.RoleID != "" && req.RoleID != user.RoleID {
		if _, err := s.roleRepo.FindByID(ctx, req.RoleID); err != nil {
			return nil, fmt.Errorf("resolve role: %w", err)
		}
		user.RoleID = req.RoleID
		user.Role = nil
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}

func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.roleRepo.List(ctx)
}

func (s *UserService) ListEmployees(ctx context.Context) ([]entity.Employee, error) {
	return s.empRepo.List(ctx)
}

// GerantEmployees returns the employees assigned to a Gerant user.
func (s *UserService) GerantEmployees(ctx context.Context, gerantUserID string) ([]entity.Employee, error) {
	if err := s.requireGerant(ctx, gerantUserID); err != nil {
		return nil, err
	}
	return s.empRepo.ListByGerant(ctx, gerantUserID)
}

// ReplaceGerantEmployees rewrites a Gerant's assignment set wholesale.
// Employee ids may refer to user ids; the employee profile is then created
// lazily, matching how order ownership works.
func (s *UserService) ReplaceGerantEmployees(ctx context.Context, gerantUserID string, userOrEmployeeIDs []string) ([]entity.Employee, error) {
	if err := s.requireGerant(ctx, gerantUserID); err != nil {
		return nil, err
	}

	employeeIDs := make([]string, 0, len(userOrEmployeeIDs))
	for _, id := range userOrEmployeeIDs {
		if _, err := s.empRepo.FindByID(ctx, id); err == nil {
			employeeIDs = append(employeeIDs, id)
			continue
		}
		// Not an employee id: treat as a user id and create the profile.
		if _, err := s.userRepo.FindByID(ctx, id); err != nil {
			return nil, err
		}
		emp, err := s.empRepo.FindOrCreateByUserID(ctx, id)
		if err != nil {
			return nil, err
		}
		employeeIDs = append(employeeIDs, emp.ID)
	}

	if err := s.empRepo.ReplaceGerantAssignments(ctx, gerantUserID, employeeIDs); err != nil {
		return nil, err
	}
	return s.empRepo.ListByGerant(ctx, gerantUserID)
}

func (s *UserService) requireGerant(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == nil || user.Role.Name != entity.RoleGerant {
		return ErrNotGerant
	}
	return nil
}
