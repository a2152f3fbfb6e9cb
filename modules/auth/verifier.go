package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/supabase-community/supabase-go"
)

// ErrUnauthorized - 토큰이 없거나 유효하지 않음
var ErrUnauthorized = errors.New("unauthorized")

// Verifier - bearer 토큰 → 사용자 id
type Verifier interface {
	UserID(ctx context.Context, bearer string) (string, error)
}

// SupabaseVerifier - Supabase Auth 로 access token 검증
type SupabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(client *supabase.Client) *SupabaseVerifier {
	return &SupabaseVerifier{client: client}
}

func (v *SupabaseVerifier) UserID(_ context.Context, bearer string) (string, error) {
	if bearer == "" {
		return "", ErrUnauthorized
	}

	user, err := v.client.Auth.WithToken(bearer).GetUser()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return user.ID.String(), nil
}

// BearerToken - "Authorization: Bearer xxx" 에서 토큰 추출
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireUser - 요청의 사용자 id. 실패 시 ErrUnauthorized 래핑
func RequireUser(ctx context.Context, v Verifier, r *http.Request) (string, error) {
	if v == nil {
		return "", ErrUnauthorized
	}
	userID, err := v.UserID(ctx, BearerToken(r))
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}
