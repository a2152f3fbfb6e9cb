package studio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeEmbedsEveryTag(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.Style = StyleCyberpunk
	cfg.Lighting = "Neon Rim Light"
	cfg.AspectRatio = RatioWide

	payload := Compose(cfg, "")
	text := payload.Instruction()

	for _, want := range []string{cfg.Style, cfg.Lighting, cfg.Camera, cfg.Environment, cfg.Pose, "16:9"} {
		assert.Contains(t, text, want)
	}
	assert.Contains(t, text, "NO watermarks")
	assert.Contains(t, text, "Photorealistic")
	assert.Equal(t, 0, payload.ImageCount())
	assert.Len(t, payload.Parts, 1)
}

func TestComposeIDPhotoClause(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.Style = StyleIDPhoto
	assert.Contains(t, Compose(cfg, "").Instruction(), IDPhotoClause)

	for _, style := range []string{StyleLinkedIn, StyleVintage, "my own style"} {
		cfg.Style = style
		assert.NotContains(t, Compose(cfg, "").Instruction(), IDPhotoClause, style)
	}
}

func TestComposeOverride(t *testing.T) {
	cfg := DefaultGenerationConfig()

	text := Compose(cfg, "red scarf, overcast mood").Instruction()
	assert.Contains(t, text, "Specific instructions: red scarf, overcast mood")

	assert.NotContains(t, Compose(cfg, "   ").Instruction(), "Specific instructions")
}

func TestComposeIsDeterministic(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.ReferenceImages = []string{"data:image/png;base64," + pngBase64}

	a := Compose(cfg, "x")
	b := Compose(cfg, "x")
	assert.Equal(t, a.Instruction(), b.Instruction())
	assert.Equal(t, a.ImageCount(), b.ImageCount())
}

func TestComposeReferenceImages(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.ReferenceImages = []string{
		"data:image/webp;base64," + pngBase64,
		pngBase64, // 헤더 없음: 바이트로 판별
		"data:image/jpeg;base64," + pngBase64,
		"data:image/png;base64," + pngBase64, // 4번째는 버려짐
	}

	payload := Compose(cfg, "")
	require.Equal(t, 3, payload.ImageCount())
	require.Len(t, payload.Parts, 4)

	assert.Equal(t, "image/webp", payload.Parts[1].InlineData.MIMEType)
	assert.Equal(t, "image/png", payload.Parts[2].InlineData.MIMEType)
	assert.Equal(t, "image/jpeg", payload.Parts[3].InlineData.MIMEType)
	assert.True(t, strings.HasPrefix(string(payload.Parts[1].InlineData.Data), "\x89PNG"))
	assert.Contains(t, payload.Instruction(), "REFERENCE IMAGES: 3")
}

func TestComposeSkipsUndecodableImages(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.ReferenceImages = []string{"data:image/png;base64,@@not-base64@@", pngBase64}

	payload := Compose(cfg, "")
	assert.Equal(t, 1, payload.ImageCount())
}

func TestSplitDataURI(t *testing.T) {
	mime, data := SplitDataURI("data:image/png;base64,AAAA")
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "AAAA", data)

	mime, data = SplitDataURI("AAAA")
	assert.Empty(t, mime)
	assert.Equal(t, "AAAA", data)

	mime, _ = SplitDataURI("data:text/plain;base64,AAAA")
	assert.Empty(t, mime)
}

func TestGenerationConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultGenerationConfig().Validate())

	cfg := DefaultGenerationConfig()
	cfg.AspectRatio = "2:3"
	assert.Error(t, cfg.Validate())

	cfg = DefaultGenerationConfig()
	cfg.Camera = " "
	assert.ErrorContains(t, cfg.Validate(), CategoryCamera)
}
