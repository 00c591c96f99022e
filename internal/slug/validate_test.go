package slug

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{name: "without scheme", candidate: "example.com/page", want: "https://example.com/page"},
		{name: "https scheme", candidate: "https://example.com", want: "https://example.com"},
		{name: "http scheme", candidate: "http://example.com", want: "http://example.com"},
		{name: "upper case scheme", candidate: "HTTPS://example.com", want: "HTTPS://example.com"},
		{name: "surrounding spaces", candidate: "  example.com  ", want: "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.candidate))
		})
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "absolute https", candidate: "https://example.com/page?q=1", want: true},
		{name: "absolute http", candidate: "http://example.com", want: true},
		{name: "without scheme", candidate: "example.com/page", want: true},
		{name: "with port", candidate: "localhost:8080/health", want: true},
		{name: "empty", candidate: "", want: false},
		{name: "blank", candidate: "   ", want: false},
		{name: "not a url", candidate: "not a url", want: false},
		{name: "scheme only", candidate: "https://", want: false},
		{name: "port without host", candidate: "https://:80", want: false},
		{name: "port and path without host", candidate: "http://:8080/path", want: false},
		{name: "bare port", candidate: ":443", want: false},
		{name: "javascript", candidate: "javascript:alert(1)", want: false},
		{name: "too long", candidate: "https://example.com/" + strings.Repeat("a", MaxURLLength), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.candidate))
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "letters", candidate: "promo", want: true},
		{name: "mixed", candidate: "My_Link-2024", want: true},
		{name: "single char", candidate: "a", want: true},
		{name: "max length", candidate: strings.Repeat("a", MaxLength), want: true},
		{name: "empty", candidate: "", want: false},
		{name: "too long", candidate: strings.Repeat("a", MaxLength+1), want: false},
		{name: "space", candidate: "my link", want: false},
		{name: "slash", candidate: "a/b", want: false},
		{name: "dot", candidate: "a.b", want: false},
		{name: "non ascii", candidate: "ссылка", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSlug(tt.candidate))
		})
	}
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("api"))
	assert.True(t, IsReserved("swagger"))
	assert.False(t, IsReserved("promo"))
}

func TestRegisterValidations(t *testing.T) {
	type request struct {
		CustomSlug string `validate:"omitempty,slug"`
	}

	v := validator.New()
	require.NoError(t, RegisterValidations(v))

	assert.NoError(t, v.Struct(request{}))
	assert.NoError(t, v.Struct(request{CustomSlug: "promo"}))
	assert.Error(t, v.Struct(request{CustomSlug: "not valid"}))
}
