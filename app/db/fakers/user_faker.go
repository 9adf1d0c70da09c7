package fakers

import (
	"strings"

	"github.com/go-faker/faker/v4"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
)

// UserFaker builds an active shopper whose password is "password".
func UserFaker() (*models.User, error) {
	hash, err := helpers.HashPassword("password")
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(faker.Email())
	return &models.User{
		Email:        email,
		Username:     email,
		FirstName:    faker.FirstName(),
		LastName:     faker.LastName(),
		PersonalData: true,
		IsActive:     true,
		Password:     hash,
	}, nil
}

// StaffFaker is UserFaker with back-office access.
func StaffFaker(email, password string) (*models.User, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email:        email,
		Username:     email,
		FirstName:    "Admin",
		PersonalData: true,
		IsActive:     true,
		IsStaff:      true,
		Password:     hash,
	}, nil
}
