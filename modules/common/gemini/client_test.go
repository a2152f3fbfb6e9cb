package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestIsPermissionError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("Error 403, Message: The caller does not have permission, Status: PERMISSION_DENIED"), true},
		{errors.New("access denied for model gemini-3-pro-image-preview"), true},
		{errors.New("API key not valid. Please pass a valid API key."), true},
		{errors.New("Error 500, Message: internal"), false},
		{errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), false},
		{errors.New("upstream returned status 403"), true},
		{errors.New("request req-4031 failed after 403ms"), false},
		{errors.New("Error 500, Message: payload of 14030 bytes rejected"), false},
		{genai.APIError{Code: http.StatusForbidden, Message: "blocked"}, true},
		{fmt.Errorf("generate: %w", genai.APIError{Code: http.StatusForbidden}), true},
		{genai.APIError{Code: http.StatusInternalServerError, Message: "trace 403a9"}, false},
		{nil, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, IsPermissionError(c.err), "%v", c.err)
	}
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("Error 429, Message: Resource has been exhausted")))
	assert.True(t, IsRateLimitError(errors.New("quota exceeded")))
	assert.False(t, IsRateLimitError(errors.New("Error 400")))
	assert.False(t, IsRateLimitError(nil))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), nil, "")
	assert.Error(t, err)
}
