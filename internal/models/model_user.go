package models

import "time"

// User owns subscriptions. Email is unique across users.
type User struct {
	ID          string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	FirstName   string `gorm:"column:first_name;type:varchar(50);not null" json:"first_name"`
	LastName    string `gorm:"column:last_name;type:varchar(50);not null" json:"last_name"`
	Email       string `gorm:"column:email;type:varchar(100);not null;uniqueIndex" json:"email"`
	PhoneNumber string `gorm:"column:phone_number;type:varchar(16)" json:"phone_number"`
	Age         int    `gorm:"column:age" json:"age"`
	IsActive    bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "app_user"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
