package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Structured(t *testing.T) {
	a := Normalize(StructuredVerdict{
		Truth:       " Certainly True ",
		Bias:        "Neutral",
		Harm:        "Harmful to no groups",
		Explanation: "Standard atmospheric pressure.",
	})

	assert.Equal(t, Assessment{
		Truth:       "Certainly True",
		Bias:        "Neutral",
		Harm:        "Harmful to no groups",
		Explanation: "Standard atmospheric pressure.",
	}, a)
}

func TestNormalize_StructuredMissingFields(t *testing.T) {
	a := Normalize(&StructuredVerdict{Truth: "Somewhat False"})
	assert.Equal(t, "Somewhat False", a.Truth)
	assert.Equal(t, Placeholder, a.Bias)
	assert.Equal(t, Placeholder, a.Harm)
	assert.Empty(t, a.Explanation)
}

func TestNormalize_FreeText(t *testing.T) {
	raw := "Certainly True\n\nHarmful to no groups\nWater boils at 100 C at 1 atm.\nSee NIST."
	a := Normalize(FreeTextVerdict{Raw: raw})

	assert.Equal(t, "Certainly True", a.Truth)
	assert.Equal(t, "Harmful to no groups", a.Harm)
	assert.Equal(t, Placeholder, a.Bias)
	assert.Equal(t, "Water boils at 100 C at 1 atm. See NIST.", a.Explanation)
}

func TestNormalize_FreeTextLabels(t *testing.T) {
	a := Normalize(FreeTextVerdict{Raw: "Truth: Somewhat True\r\nHarm: Slightly Harmful to farmers"})
	assert.Equal(t, "Somewhat True", a.Truth)
	assert.Equal(t, "Slightly Harmful to farmers", a.Harm)
}

func TestNormalize_EmptyAndNil(t *testing.T) {
	want := Assessment{Truth: Placeholder, Bias: Placeholder, Harm: Placeholder}
	assert.Equal(t, want, Normalize(nil))
	assert.Equal(t, want, Normalize(FreeTextVerdict{}))
	assert.Equal(t, want, Normalize((*StructuredVerdict)(nil)))
}
