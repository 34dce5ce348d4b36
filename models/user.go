package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleFinance Role = "FINANCE"
	RoleAuditor Role = "AUDITOR"
)

type User struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:120;not null"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  []byte    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:varchar(12);not null"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	return
}

func (user *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	return nil
}

func (user *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(user.Password, []byte(password))
}

// UserContract grants a user visibility of one contract. Admins see every contract.
type UserContract struct {
	UserID     string `json:"user_id" gorm:"primaryKey;size:36"`
	ContractID uint   `json:"contract_id" gorm:"primaryKey;autoIncrement:false"`
}
