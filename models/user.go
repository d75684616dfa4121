package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
)

// User exists for audit attribution only: the core trusts the acting user
// id handed to it and performs no permission checks.
type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username" binding:"required"`
	Name      string    `gorm:"size:255" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

type SigninInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username: input.Username,
		Name:     input.Name,
		Password: string(hashed),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Signin verifies credentials and returns a signed token carrying the
// acting user's id and display name.
func Signin(ctx context.Context, input *SigninInput) (string, error) {
	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error; err != nil {
		return "", errors.New("invalid username or password")
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return "", errors.New("invalid username or password")
	}

	return utils.JwtGenerate(user.ID, user.Name)
}

// GetUser reads through the redis cache; a miss falls back to the database
// and refills the cache.
func GetUser(ctx context.Context, id int) (*User, error) {
	cacheKey := "User:" + strconv.Itoa(id)

	var user User
	exists, err := config.GetRedisObject(cacheKey, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}

	result, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(cacheKey, result, time.Hour); err != nil {
		return nil, err
	}
	return result, nil
}

// Signout blacklists the presented token for the rest of its lifetime and
// evicts the cached user object.
func Signout(ctx context.Context, token string) error {
	if err := config.SetRedisObject("TokenBlacklist:"+token, true, utils.TokenLifespan()); err != nil {
		return err
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		return config.RemoveRedisKey("User:" + strconv.Itoa(userId))
	}
	return nil
}
