package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caseProduct() *Product {
	return &Product{
		ID:    1,
		Name:  "Shockproof Case",
		Price: 35000,
		Variants: []ProductVariant{
			{ID: 10, SKU: "CASE-BLK-13", Price: 35000, Attributes: OptionMap{"Color": "Black", "Model": "iPhone 13"}},
			{ID: 11, SKU: "CASE-BLK-14", Price: 37000, Attributes: OptionMap{"Color": "Black", "Model": "iPhone 14"}},
			{ID: 12, SKU: "CASE-RED-13", Price: 35000, Attributes: OptionMap{"Color": "Red", "Model": "iPhone 13"}},
		},
	}
}

func TestResolveVariant_FullSelection(t *testing.T) {
	p := caseProduct()

	v := ResolveVariant(p, map[string]string{"Color": "Black", "Model": "iPhone 14"})
	require.NotNil(t, v)
	assert.Equal(t, "CASE-BLK-14", v.SKU)
}

func TestResolveVariant_PartialSelection_FirstMatchWins(t *testing.T) {
	p := caseProduct()

	// Two variants are black; the first declared one is returned
	v := ResolveVariant(p, map[string]string{"Color": "Black"})
	require.NotNil(t, v)
	assert.Equal(t, "CASE-BLK-13", v.SKU)
}

func TestResolveVariant_NoMatch_FallsBackToFirstVariant(t *testing.T) {
	p := caseProduct()

	// Red + iPhone 14 was never produced
	v := ResolveVariant(p, map[string]string{"Color": "Red", "Model": "iPhone 14"})
	require.NotNil(t, v)
	assert.Equal(t, "CASE-BLK-13", v.SKU)
}

func TestResolveVariant_EmptySelection_ReturnsFirstVariant(t *testing.T) {
	p := caseProduct()

	v := ResolveVariant(p, nil)
	require.NotNil(t, v)
	assert.Equal(t, "CASE-BLK-13", v.SKU)
}

func TestResolveVariant_AxisNameCaseInsensitive(t *testing.T) {
	p := caseProduct()

	v := ResolveVariant(p, map[string]string{"colour": "Red"})
	require.NotNil(t, v)
	// "colour" does not fold to "Color", but "color" does
	assert.Equal(t, "CASE-BLK-13", v.SKU)

	v = ResolveVariant(p, map[string]string{"color": "Red"})
	require.NotNil(t, v)
	assert.Equal(t, "CASE-RED-13", v.SKU)
}

func TestResolveVariant_ValueComparisonIsExact(t *testing.T) {
	p := caseProduct()

	// Values never fold case; "black" does not match "Black"
	v := ResolveVariant(p, map[string]string{"Color": "black"})
	require.NotNil(t, v)
	assert.Equal(t, "CASE-BLK-13", v.SKU)
}

func TestResolveVariant_NoVariants(t *testing.T) {
	p := &Product{ID: 2, Name: "Charging Cable", Price: 5000}

	assert.Nil(t, ResolveVariant(p, map[string]string{"Color": "Black"}))
}

func TestResolveVariant_Determinism(t *testing.T) {
	p := caseProduct()
	selection := map[string]string{"Color": "Red", "Model": "iPhone 13"}

	first := ResolveVariant(p, selection)
	require.NotNil(t, first)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first.ID, ResolveVariant(p, selection).ID)
	}
}

func TestOptionMapEqual(t *testing.T) {
	a := OptionMap{"Color": "Black", "Size": "L"}
	b := OptionMap{"Size": "L", "Color": "Black"}
	c := OptionMap{"Color": "Black"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, c.Equal(a))
}

func TestValidateVariantAttributes_RejectsDuplicates(t *testing.T) {
	err := validateVariantAttributes([]VariantInput{
		{SKU: "A", Attributes: map[string]string{"Color": "Black"}},
		{SKU: "B", Attributes: map[string]string{"Color": "Black"}},
	})
	require.Error(t, err)

	err = validateVariantAttributes([]VariantInput{
		{SKU: "A", Attributes: map[string]string{"Color": "Black"}},
		{SKU: "B", Attributes: map[string]string{"Color": "Red"}},
	})
	require.NoError(t, err)
}
