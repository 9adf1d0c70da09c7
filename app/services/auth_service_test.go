package services

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	users  repositories.UserRepositoryImpl
	signer *Signer
	mail   *fakeNotifier
	auth   *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	db := newTestDB(t)
	f := &authFixture{
		users:  repositories.NewUserRepository(db),
		signer: NewSigner("secret", "registration"),
		mail:   &fakeNotifier{},
	}
	f.auth = NewAuthService(f.users, f.signer, f.mail, AuthConfig{AppURL: "http://klio.test", ActivationDays: 7, ResetDays: 3})
	return f
}

var linkPattern = regexp.MustCompile(`href="([^"]+)"`)

func mailedLink(t *testing.T, m sentMail) string {
	t.Helper()
	match := linkPattern.FindStringSubmatch(m.Body)
	require.Len(t, match, 2)
	return match[1]
}

func validRegistration() RegisterInput {
	return RegisterInput{
		LastName:        "Sidorov",
		FirstName:       "Petr",
		Email:           "petr@klio.test",
		Password:        "secret1",
		PasswordConfirm: "secret1",
		PersonalData:    true,
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	in := validRegistration()
	in.PasswordConfirm = "other"
	in.PersonalData = false
	_, err := f.auth.Register(ctx, in)
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Passwords must match.", fe["password"])
	assert.Contains(t, fe, "personal_data")

	in = validRegistration()
	in.Password, in.PasswordConfirm = "abc", "abc"
	_, err = f.auth.Register(ctx, in)
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Ensure this field has at least 4 characters.", fe["password"])

	_, err = f.auth.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, validRegistration())
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "User with this email already exists.", fe["email"])
}

func TestAuthService_RegisterActivateLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = f.auth.Authenticate(ctx, "petr@klio.test", "secret1")
	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "User is not active.", regErr.Message)

	_, err = f.auth.Authenticate(ctx, "petr@klio.test", "wrong")
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "User is not active.", regErr.Message)

	mails := f.mail.to("petr@klio.test")
	require.Len(t, mails, 1)
	link := mailedLink(t, mails[0])
	require.Contains(t, link, "http://klio.test/activate/")
	key := link[len("http://klio.test/activate/"):]

	activated, err := f.auth.Activate(ctx, key)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	_, err = f.auth.Activate(ctx, key)
	var actErr *ActivationError
	require.ErrorAs(t, err, &actErr)
	assert.Contains(t, actErr.Error(), "already been activated")

	logged, err := f.auth.Authenticate(ctx, "petr@klio.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = f.auth.Authenticate(ctx, "petr@klio.test", "wrong")
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, http.StatusNotFound, regErr.Code)

	_, err = f.auth.Authenticate(ctx, "", "")
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, http.StatusBadRequest, regErr.Code)
}

func TestAuthService_ActivateRejectsBadKeys(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.Activate(ctx, "garbage")
	var actErr *ActivationError
	require.ErrorAs(t, err, &actErr)
	assert.Contains(t, actErr.Error(), "invalid")

	issued := time.Now().Add(-8 * 24 * time.Hour)
	f.signer.now = func() time.Time { return issued }
	key, err := f.signer.Sign("ghost@klio.test")
	require.NoError(t, err)
	f.signer.now = time.Now

	_, err = f.auth.Activate(ctx, key)
	require.ErrorAs(t, err, &actErr)
	assert.Contains(t, actErr.Error(), "expired")

	key, err = f.signer.Sign("ghost@klio.test")
	require.NoError(t, err)
	_, err = f.auth.Activate(ctx, key)
	require.ErrorAs(t, err, &actErr)
	assert.Contains(t, actErr.Error(), "attempted to activate is invalid")
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	hash, err := helpers.HashPassword("before")
	require.NoError(t, err)
	user := &models.User{Email: "reset@klio.test", Username: "reset", Password: hash, IsActive: true}
	require.NoError(t, f.users.Create(ctx, user))

	err = f.auth.RequestPasswordReset(ctx, "nobody@klio.test")
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "email")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, "reset@klio.test"))
	mails := f.mail.to("reset@klio.test")
	require.Len(t, mails, 1)
	prefix := "http://klio.test/password/" + user.ID + "/set/"
	link := mailedLink(t, mails[0])
	require.Contains(t, link, prefix)
	key := link[len(prefix):]

	err = f.auth.ResetPassword(ctx, user.ID, key, ResetInput{Password: "after1", PasswordConfirm: "after2"})
	require.ErrorAs(t, err, &fe)

	require.NoError(t, f.auth.ResetPassword(ctx, user.ID, key, ResetInput{Password: "after1", PasswordConfirm: "after1"}))
	_, err = f.auth.Authenticate(ctx, "reset@klio.test", "after1")
	require.NoError(t, err)

	// The key signed the old hash and is spent now.
	err = f.auth.ResetPassword(ctx, user.ID, key, ResetInput{Password: "again1", PasswordConfirm: "again1"})
	var actErr *ActivationError
	require.ErrorAs(t, err, &actErr)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{Email: "me@klio.test", Username: "me", Password: "x", IsActive: true}
	require.NoError(t, f.users.Create(ctx, user))

	_, err := f.auth.UpdateProfile(ctx, user.ID, ProfileUpdate{Birthday: ptr("31.12.1990")})
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "birthday")

	updated, err := f.auth.UpdateProfile(ctx, user.ID, ProfileUpdate{FirstName: ptr("Olga"), Birthday: ptr("1990-12-31")})
	require.NoError(t, err)
	assert.Equal(t, "Olga", updated.FirstName)
	require.NotNil(t, updated.Birthday)
	assert.Equal(t, 1990, updated.Birthday.Year())

	_, err = f.auth.UpdateProfile(ctx, "missing", ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}
