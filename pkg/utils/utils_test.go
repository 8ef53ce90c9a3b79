package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Sea View Villa":            "sea-view-villa",
		"  3+1 Apartment, Center ":  "3-1-apartment-center",
		"Çamlıca'da Şık Daire":      "camlica-da-sik-daire",
		"Göl Manzaralı Müstakil Ev": "gol-manzarali-mustakil-ev",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugifyEmptyFallsBackToRandom(t *testing.T) {
	s := Slugify("!!!")
	assert.Len(t, s, 8)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	assert.NoError(t, err)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
