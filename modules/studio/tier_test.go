package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectModel(t *testing.T) {
	std := SelectModel(TierStandard, DefaultCatalog)
	assert.Equal(t, "gemini-2.5-flash-image", std.ID)
	assert.Equal(t, FamilyFlashImage, std.Family)

	pro := SelectModel(TierPremium, DefaultCatalog)
	assert.Equal(t, "gemini-3-pro-image-preview", pro.ID)
	assert.Equal(t, FamilyProImage, pro.Family)

	unknown := SelectModel(ModelTier("ultra"), ModelCatalog{})
	assert.Equal(t, TierStandard, unknown.Tier)
	assert.Equal(t, DefaultCatalog.Standard, unknown.ID)

	custom := SelectModel(TierPremium, ModelCatalog{Premium: "my-pro"})
	assert.Equal(t, "my-pro", custom.ID)
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPremium, ParseTier("premium"))
	assert.Equal(t, TierPremium, ParseTier("imagen-3.0-generate-001"))
	assert.Equal(t, TierStandard, ParseTier("gemini-2.5-flash"))
	assert.Equal(t, TierStandard, ParseTier(""))
}

func TestStandardParamsCarryNoImageSize(t *testing.T) {
	params := SelectModel(TierStandard, DefaultCatalog).Params(RatioPortrait)
	assert.Equal(t, []string{FieldAspectRatio}, params.AcceptedFields())

	cfg := BuildGenerateConfig(params)
	require.NotNil(t, cfg.ImageConfig)
	assert.Equal(t, "3:4", cfg.ImageConfig.AspectRatio)
	assert.Empty(t, cfg.ImageConfig.ImageSize)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, cfg.ResponseModalities)
}

func TestPremiumParamsAlwaysCarryImageSize(t *testing.T) {
	params := SelectModel(TierPremium, DefaultCatalog).Params(RatioSquare)
	assert.ElementsMatch(t, []string{FieldAspectRatio, FieldImageSize}, params.AcceptedFields())

	cfg := BuildGenerateConfig(params)
	require.NotNil(t, cfg.ImageConfig)
	assert.Equal(t, PremiumImageSize, cfg.ImageConfig.ImageSize)
	assert.Equal(t, "1:1", cfg.ImageConfig.AspectRatio)

	cfg = BuildGenerateConfig(ProImageParams{AspectRatio: RatioWide})
	assert.Equal(t, PremiumImageSize, cfg.ImageConfig.ImageSize)
}
