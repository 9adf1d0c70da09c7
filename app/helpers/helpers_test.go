package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	Confirm  string `json:"password_confirm" validate:"eqfield=Password"`
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	errs := ValidateStruct(NewValidator(), registerDTO{Email: "nope", Password: "abc", Confirm: "abd"})

	assert.Equal(t, "Enter a valid email address.", errs["email"])
	assert.Equal(t, "Ensure this field has at least 4 characters.", errs["password"])
	assert.Equal(t, "Passwords must match.", errs["password_confirm"])
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.Nil(t, ValidateStruct(NewValidator(), registerDTO{Email: "a@b.ru", Password: "abcd", Confirm: "abcd"}))
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Amount int `json:"amount"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": 3}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, 3, dst.Amount)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.ErrorIs(t, DecodeJSON(req, &dst), ErrInvalidJSON)
}

func TestParsePageAndPaginated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&size=500&in_stock=1", nil)
	page := ParsePage(req)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, MaxPageSize, page.Size)
	assert.Equal(t, 100, page.Offset())

	body := Paginated(req, page, 250, []int{})
	next := body["next"].(*string)
	prev := body["previous"].(*string)
	require.NotNil(t, next)
	require.NotNil(t, prev)
	assert.Contains(t, *next, "page=3")
	assert.Contains(t, *prev, "page=1")
	assert.Contains(t, *next, "in_stock=1")

	last := Paginated(req, Page{Number: 3, Size: 100}, 250, nil)
	assert.Nil(t, last["next"])
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.True(t, PasswordCompare(hash, []byte("secret")))
	assert.False(t, PasswordCompare(hash, []byte("other")))
}
