package services

import (
	"net/mail"
	"strings"

	"contratos-backend/models"

	"gorm.io/gorm"
)

func validRole(r models.Role) bool {
	switch r {
	case models.RoleAdmin, models.RoleManager, models.RoleFinance, models.RoleAuditor:
		return true
	}
	return false
}

// Authenticate checks credentials. Unknown emails, wrong passwords and inactive users
// all yield the same not-found error.
func (s *Service) Authenticate(tx *gorm.DB, email, password string) (*models.User, error) {
	var u models.User
	err := tx.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, lookupErr(err, "invalid credentials")
	}
	if !u.Active || u.ComparePassword(password) != nil {
		return nil, notFound("invalid credentials")
	}
	return &u, nil
}

type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

func (s *Service) CreateUser(tx *gorm.DB, in UserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, violation("invalid email format")
	}
	if len(in.Password) < 8 {
		return nil, violation("password must have at least 8 characters")
	}
	if !validRole(in.Role) {
		return nil, violation("unknown role %q", in.Role)
	}
	u := models.User{Name: strings.TrimSpace(in.Name), Email: email, Role: in.Role, Active: true}
	if err := u.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := tx.Create(&u).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	s.Log.WithField("user_id", u.Id).WithField("role", u.Role).Info("user created")
	return &u, nil
}

func (s *Service) GetUser(tx *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, lookupErr(err, "user %s not found", id)
	}
	return &u, nil
}

func (s *Service) ListUsers(tx *gorm.DB, page Page) ([]models.User, error) {
	var out []models.User
	if err := page.apply(tx.Order("email")).Find(&out).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	return out, nil
}

// SetUserActive enables or disables a user without deleting it.
func (s *Service) SetUserActive(tx *gorm.DB, id string, active bool) (*models.User, error) {
	u, err := s.GetUser(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(&models.User{}).Where("id = ?", id).Update("active", active).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	u.Active = active
	return u, nil
}

// GrantContracts replaces the set of contracts a user may see.
func (s *Service) GrantContracts(tx *gorm.DB, userID string, contractIDs []uint) ([]uint, error) {
	if _, err := s.GetUser(tx, userID); err != nil {
		return nil, err
	}
	unique := make([]uint, 0, len(contractIDs))
	seen := make(map[uint]bool, len(contractIDs))
	for _, id := range contractIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) > 0 {
		var n int64
		if err := tx.Model(&models.Contract{}).Where("id IN ?", unique).Count(&n).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
		if int(n) != len(unique) {
			return nil, notFound("some of the contracts do not exist")
		}
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.UserContract{}).Error; err != nil {
		return nil, ClassifyDBError(err)
	}
	if len(unique) > 0 {
		rows := make([]models.UserContract, 0, len(unique))
		for _, id := range unique {
			rows = append(rows, models.UserContract{UserID: userID, ContractID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return nil, ClassifyDBError(err)
		}
	}
	return unique, nil
}

// ScopeFor resolves the contracts visible to a user. Admins see every contract.
func (s *Service) ScopeFor(tx *gorm.DB, userID string) (Scope, *models.User, error) {
	u, err := s.GetUser(tx, userID)
	if err != nil {
		return Scope{}, nil, err
	}
	if !u.Active {
		return Scope{}, nil, notFound("user %s not found", userID)
	}
	if u.Role == models.RoleAdmin {
		return FullScope, u, nil
	}
	var ids []uint
	if err := tx.Model(&models.UserContract{}).Where("user_id = ?", userID).
		Order("contract_id").Pluck("contract_id", &ids).Error; err != nil {
		return Scope{}, nil, ClassifyDBError(err)
	}
	return Scope{ContractIDs: ids}, u, nil
}
