package store

import "time"

// UserModel is the GORM model backing the users table.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName keeps the table name aligned with the bootstrap schema.
func (UserModel) TableName() string { return "users" }
