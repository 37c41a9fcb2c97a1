package repository

import (
	"context"

	"stackit/internal/microservices/http-api/models"
)

func (r *gormRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	// return nil on miss, a zero-value user would look like a real one
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, firstOrNotFound(err)
	}
	return &user, nil
}

func (r *gormRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, firstOrNotFound(err)
	}
	return &user, nil
}
