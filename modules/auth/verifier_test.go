package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier map[string]string

func (s staticVerifier) UserID(_ context.Context, bearer string) (string, error) {
	if id, ok := s[bearer]; ok {
		return id, nil
	}
	return "", ErrUnauthorized
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":      "abc",
		"bearer  abc ":    "abc",
		"Basic abc":       "",
		"":                "",
		"Bearer":          "",
		"Token something": "",
	}
	for header, want := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), "header %q", header)
	}
}

func TestRequireUser(t *testing.T) {
	v := staticVerifier{"good": "user-1"}

	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	id, err := RequireUser(context.Background(), v, r)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	r.Header.Set("Authorization", "Bearer bad")
	_, err = RequireUser(context.Background(), v, r)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = RequireUser(context.Background(), nil, r)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
