package studio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProxyReplyEnvelope(t *testing.T) {
	body := `{"success":true,"image":"data:image/png;base64,` + pngBase64 + `","text":null,"finishReason":"STOP"}`

	out := DecodeProxyReply(http.StatusOK, []byte(body))

	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, "STOP", out.FinishReason)
}

func TestDecodeProxyReplyTextOnlyEnvelope(t *testing.T) {
	out := DecodeProxyReply(http.StatusOK, []byte(`{"success":true,"image":null,"text":"no image today","finishReason":"STOP"}`))
	require.Equal(t, OutcomeTextOnly, out.Kind)
	assert.Equal(t, "no image today", out.Text)
}

func TestDecodeProxyReplyRawShapes(t *testing.T) {
	top := `{"candidates":[{"finishReason":"STOP","content":{"parts":[{"inlineData":{"mimeType":"image/jpeg","data":"` + pngBase64 + `"}}]}}]}`
	nested := `{"response":` + top + `}`

	for _, body := range []string{top, nested} {
		out := DecodeProxyReply(http.StatusOK, []byte(body))
		require.Equal(t, OutcomeSuccess, out.Kind, body)
		assert.Equal(t, "image/jpeg", out.MIMEType)
	}

	out := DecodeProxyReply(http.StatusOK, []byte(`{"candidates":[{"finishReason":"IMAGE_SAFETY"}]}`))
	assert.Equal(t, ReasonBlockedContent, out.Reason)
	assert.Equal(t, "IMAGE_SAFETY", out.Detail)
}

func TestDecodeProxyReplyErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		reason FailureReason
		detail string
	}{
		{"blocked", 400, `{"error":"Generation Stopped. Reason: SAFETY","details":{"finishReason":"SAFETY"}}`, ReasonBlockedContent, "SAFETY"},
		{"blocked without details", 400, `{"error":"Generation Stopped. Reason: RECITATION"}`, ReasonBlockedContent, "RECITATION"},
		{"no candidates", 500, `{"error":"No candidates returned from AI","details":{"blockReason":"OTHER"}}`, ReasonNoCandidates, `{"blockReason":"OTHER"}`},
		{"forbidden", 403, `{"error":"nope"}`, ReasonPermissionDenied, "nope"},
		{"permission message", 500, `{"error":"Error 403, Status: PERMISSION_DENIED"}`, ReasonPermissionDenied, "Error 403, Status: PERMISSION_DENIED"},
		{"missing server key", 500, `{"error":"Server Error: GEMINI_API_KEY is missing in environment."}`, ReasonTransport, "Server Error: GEMINI_API_KEY is missing in environment."},
		{"not json", 502, `<html>bad gateway</html>`, ReasonTransport, ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := DecodeProxyReply(c.status, []byte(c.body))
			require.Equal(t, OutcomeFailure, out.Kind)
			assert.Equal(t, c.reason, out.Reason)
			if c.detail != "" {
				assert.Equal(t, c.detail, out.Detail)
			}
		})
	}
}

func TestProxyTransportRoundTrip(t *testing.T) {
	var got ProxyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"image":"data:image/png;base64,` + pngBase64 + `","text":null,"finishReason":"STOP"}`))
	}))
	defer srv.Close()

	gen := NewGenerator(NewProxyTransport(srv.URL, srv.Client()), time.Second)
	out := gen.Generate(context.Background(), Compose(DefaultGenerationConfig(), ""), "gemini-2.5-flash-image", FlashImageParams{AspectRatio: RatioPortrait})

	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, "gemini-2.5-flash-image", got.ModelName)
	require.Len(t, got.Contents, 1)
	require.NotNil(t, got.Config)
	require.NotNil(t, got.Config.ImageConfig)
	assert.Equal(t, "3:4", got.Config.ImageConfig.AspectRatio)
}

func TestProxyTransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	gen := NewGenerator(NewProxyTransport(srv.URL, srv.Client()), 50*time.Millisecond)
	out := gen.Generate(context.Background(), Compose(DefaultGenerationConfig(), ""), "m", nil)

	assert.Equal(t, ReasonTimeout, out.Reason)
}
