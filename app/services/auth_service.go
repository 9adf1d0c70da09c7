package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"go.uber.org/zap"
)

const minPasswordLength = 4

type AuthConfig struct {
	AppURL         string
	ActivationDays int
	ResetDays      int
}

type AuthService struct {
	users  repositories.UserRepositoryImpl
	signer *Signer
	mailer Notifier
	cfg    AuthConfig
}

func NewAuthService(users repositories.UserRepositoryImpl, signer *Signer, mailer Notifier, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, signer: signer, mailer: mailer, cfg: cfg}
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func (s *AuthService) link(path string) string {
	return strings.TrimRight(s.cfg.AppURL, "/") + path
}

type RegisterInput struct {
	LastName        string `json:"last_name" validate:"required,max=64"`
	FirstName       string `json:"first_name" validate:"required,max=64"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	PersonalData    bool   `json:"personal_data"`
}

func checkPasswords(password, confirm string, errs models.FieldErrors) {
	if password != confirm {
		errs.Add("password", "Passwords must match.")
	} else if len([]rune(password)) < minPasswordLength {
		errs.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	}
}

// Register creates an inactive account and mails its activation link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	errs := models.FieldErrors{}
	if !in.PersonalData {
		errs.Add("personal_data", "You must agree to the processing of personal data.")
	}
	checkPasswords(in.Password, in.PasswordConfirm, errs)

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if existing != nil {
		errs.Add("email", "User with this email already exists.")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		LastName:     in.LastName,
		FirstName:    in.FirstName,
		PersonalData: in.PersonalData,
		Password:     hash,
	}
	user.Username = "user" + strings.ReplaceAll(user.ID, "-", "")[:12]
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	key, err := s.signer.Sign(user.Email)
	if err != nil {
		return nil, err
	}
	body := BuildActivationEmailBody(s.link("/activate/"+key), s.cfg.ActivationDays)
	if s.mailer != nil {
		if err := s.mailer.SendHTMLEmail(user.Email, "Активация аккаунта", body); err != nil {
			zap.L().Error("AuthService.Register: activation email not sent", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	zap.L().Info("AuthService.Register: user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Activate redeems an activation key.
func (s *AuthService) Activate(ctx context.Context, key string) (*models.User, error) {
	email, err := s.signer.Unsign(key, days(s.cfg.ActivationDays))
	if err != nil {
		if errors.Is(err, ErrSignatureExpired) {
			return nil, newActivationError("This account has expired.")
		}
		return nil, newActivationError("The activation key you provided is invalid.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user == nil {
		return nil, newActivationError("The account you attempted to activate is invalid.")
	}
	if user.IsActive {
		return nil, newActivationError("The account you tried to activate has already been activated.")
	}
	if err := s.users.Activate(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	user.IsActive = true
	return user, nil
}

// Authenticate checks credentials for the session login.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &RegistrationError{Message: "Both email and password must be provided.", Code: http.StatusBadRequest}
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user != nil && !user.IsActive {
		return nil, &RegistrationError{Message: "User is not active.", Code: http.StatusNotFound}
	}
	if user == nil || !helpers.PasswordCompare(user.Password, []byte(password)) {
		return nil, &RegistrationError{Message: "Incorrect email or password.", Code: http.StatusNotFound}
	}
	return user, nil
}

// RequestPasswordReset mails a reset link. The key signs the current
// password hash, so it stops working once the password changes.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find user by email: %w", err)
	}
	if user == nil {
		return models.FieldErrors{"email": "User with this email does not exist."}
	}

	key, err := s.signer.Sign(user.Password)
	if err != nil {
		return err
	}
	link := s.link(fmt.Sprintf("/password/%s/set/%s", user.ID, key))
	if s.mailer != nil {
		if err := s.mailer.SendHTMLEmail(user.Email, "Сброс пароля", BuildPasswordResetEmailBody(link, s.cfg.ResetDays)); err != nil {
			return fmt.Errorf("send reset email: %w", err)
		}
	}
	return nil
}

type ResetInput struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (s *AuthService) ResetPassword(ctx context.Context, userID, key string, in ResetInput) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return newActivationError("The account you attempted to reset password for is invalid.")
	}
	if !user.IsActive {
		return newActivationError("The account you attempted to reset password for is not active.")
	}

	hash, err := s.signer.Unsign(key, days(s.cfg.ResetDays))
	if err != nil {
		if errors.Is(err, ErrSignatureExpired) {
			return newActivationError("The reset key has expired.")
		}
		return newActivationError("The reset key you provided is invalid.")
	}
	if hash != user.Password {
		return newActivationError("The reset key you provided is invalid.")
	}

	errs := models.FieldErrors{}
	checkPasswords(in.Password, in.PasswordConfirm, errs)
	if err := errs.Err(); err != nil {
		return err
	}

	newHash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	zap.L().Info("AuthService.ResetPassword: password reset", zap.String("user_id", user.ID))
	return nil
}

type ProfileUpdate struct {
	FirstName    *string `json:"first_name" validate:"omitempty,max=64"`
	LastName     *string `json:"last_name" validate:"omitempty,max=64"`
	MiddleName   *string `json:"middle_name" validate:"omitempty,max=128"`
	Birthday     *string `json:"birthday"`
	Address      *string `json:"address" validate:"omitempty,max=512"`
	CityID       *string `json:"city"`
	CountryID    *string `json:"country"`
	PersonalData *bool   `json:"personal_data"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.MiddleName != nil {
		user.MiddleName = *in.MiddleName
	}
	if in.Birthday != nil {
		if *in.Birthday == "" {
			user.Birthday = nil
		} else {
			day, err := time.Parse("2006-01-02", *in.Birthday)
			if err != nil {
				return nil, models.FieldErrors{"birthday": "Date has wrong format. Use YYYY-MM-DD."}
			}
			user.Birthday = &day
		}
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.CityID != nil {
		user.CityID = optionalID(*in.CityID)
	}
	if in.CountryID != nil {
		user.CountryID = optionalID(*in.CountryID)
	}
	if in.PersonalData != nil {
		user.PersonalData = *in.PersonalData
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
