package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User is the ledger account of a principal. Points is a cached projection
// of the user's ledger entries.
type User struct {
	ID     string `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	Points int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (User) TableName() string {
	return "users"
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

// Ensure creates the account unless one with the same id exists, and returns
// the stored row either way.
func (d *UserDAO) Ensure(ctx context.Context, user User) (User, error) {
	db := d.db.WithContext(ctx)

	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if result.Error != nil {
		return User{}, result.Error
	}

	return d.FindByID(ctx, user.ID)
}

func (d *UserDAO) FindByID(ctx context.Context, id string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func lockUser(tx *gorm.DB, id string) (User, error) {
	var user User

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func addPoints(tx *gorm.DB, user *User, delta int, at time.Time) error {
	err := tx.Model(&User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"points":     gorm.Expr("points + ?", delta),
			"updated_at": at,
		}).Error
	if err != nil {
		return err
	}

	user.Points += delta
	user.UpdatedAt = at
	return nil
}
