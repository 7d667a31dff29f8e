// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Casa Modelo", "casa-modelo"},
		{"  Torre  B  ", "torre-b"},
		{"Edifício Central", "edificio-central"},
		{"Projeto_Final", "projeto_final"},
		{"bloco--A--03", "bloco-a-03"},
		{"v1.2 (rev)", "v1-2-rev"},
		{"Casa Térrea (v2)", "casa-terrea-v2"},
		{"D'Ávila & Filhos", "davila-and-filhos"},
		{"!!!", Fallback},
		{"", Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugify_OnlyAllowedCharacters(t *testing.T) {
	for _, in := range []string{"Ação/Ñandú", "a b\tc", "ÁÉÍÓÚ", "x#y%z"} {
		got := Slugify(in)
		assert.Regexp(t, `^[a-z0-9_-]+$`, got, "input %q", in)
		assert.NotContains(t, got, "--")
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"Casa A", "casa-a", "CASA_B", "casa a", "!!!"})
	assert.Equal(t, []string{"casa-a", "casa-a-2", "casa_b", "casa-a-3", "model"}, got)
}
