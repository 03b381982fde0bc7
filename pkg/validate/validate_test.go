package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type productForm struct {
	Code     string `json:"code"     validate:"required|alpha_dash|max:32"`
	Name     string `json:"name"     validate:"required|min:3"`
	Price    string `json:"price"    validate:"required|decimal"`
	Phone    string `json:"phone"    validate:"nullable|phone"`
	Category string `json:"category" validate:"required|in:Tortas,Postres,Bocaditos"`
	Hours    int    `json:"hours"    validate:"nullable|gte:1|lte:240"`
	Email    string `json:"email"    validate:"nullable|email"`
}

func TestStructValid(t *testing.T) {
	errs := Struct(productForm{
		Code:     "torta-choco",
		Name:     "Torta de Chocolate",
		Price:    "28.00",
		Phone:    "+593 99 123 4567",
		Category: "Tortas",
		Hours:    48,
	})
	assert.False(t, HasErrors(errs), "unexpected errors: %v", errs)
}

func TestStructCollectsFieldErrors(t *testing.T) {
	errs := Struct(productForm{
		Code:     "has spaces!",
		Name:     "ab",
		Price:    "veintiocho",
		Phone:    "x",
		Category: "Bebidas",
		Hours:    500,
		Email:    "not-an-email",
	})

	assert.True(t, HasErrors(errs))
	for _, field := range []string{"code", "name", "price", "phone", "category", "hours", "email"} {
		assert.Contains(t, errs, field, "expected error for %s", field)
	}
}

func TestRequiredVsNullable(t *testing.T) {
	errs := Struct(productForm{})
	assert.Contains(t, errs, "code")
	assert.Contains(t, errs, "name")
	// Nullable fields stay silent when empty.
	assert.NotContains(t, errs, "phone")
	assert.NotContains(t, errs, "email")
	assert.NotContains(t, errs, "hours")
}

func TestDecimalRule(t *testing.T) {
	type form struct {
		Price string `json:"price" validate:"required|decimal"`
	}

	assert.False(t, HasErrors(Struct(form{Price: "10"})))
	assert.False(t, HasErrors(Struct(form{Price: "10.50"})))
	assert.True(t, HasErrors(Struct(form{Price: "10.505"})))
	assert.True(t, HasErrors(Struct(form{Price: "-1"})))
}

func TestInRuleKeepsMultiValueParams(t *testing.T) {
	type form struct {
		Status string `json:"status" validate:"required|in:pending,confirmed,cancelled"`
	}

	assert.False(t, HasErrors(Struct(form{Status: "confirmed"})))
	assert.True(t, HasErrors(Struct(form{Status: "shipped"})))
}
