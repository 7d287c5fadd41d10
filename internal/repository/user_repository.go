package repository

import (
	"time"

	"github.com/sevans717/aphila-sub007/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	return &user, err
}

// UpdateOnlineStatus persists the tracker's online flag; last_seen is only
// touched on the way offline so it records the end of the last session.
func (r *UserRepository) UpdateOnlineStatus(userID uint, isOnline bool) error {
	updates := map[string]interface{}{"is_online": isOnline}
	if !isOnline {
		now := time.Now()
		updates["last_seen"] = &now
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}
