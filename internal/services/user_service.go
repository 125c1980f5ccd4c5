package services

import (
	"fmt"

	"emberfree_go_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateOrUpdateUser(auth0ID, email, name string) (*models.User, error) {
	user := models.User{
		Auth0ID: auth0ID,
		Email:   email,
		Name:    name,
	}
	result := s.db.Where(models.User{Auth0ID: auth0ID}).FirstOrCreate(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (s *UserService) GetUserByAuth0ID(auth0ID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) SetPremium(userID uuid.UUID, premium bool) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("premium", premium)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// UpdateProgress stores the quit-journey state pushed by the mobile app.
// This is the data the AI layer snapshots at generation time.
func (s *UserService) UpdateProgress(userID uuid.UUID, progress models.UserProgress) error {
	updates := map[string]interface{}{
		"streak":      progress.Streak,
		"total_days":  progress.TotalDays,
		"level":       progress.Level,
		"xp":          progress.XP,
		"badge_count": progress.Badges,
	}
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}
