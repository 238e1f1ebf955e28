package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Road Signs", "road-signs"},
		{"road_signs", "road-signs"},
		{"ROAD-SIGNS", "road-signs"},
		{"Crème Brûlée", "creme-brulee"},
		{"  multi   word ", "multi-word"},
		{"--leading--", "leading"},
		{"icon.svg!", "iconsvg"},
		{"foobar", "foobar"},
		{"", ""},
		{"🚧 Warning!", "warning"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.input), "Slugify(%q)", tc.input)
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	for _, input := range []string{"Road Signs", "crème", "a_b c-d"} {
		once := Slugify(input)
		assert.Equal(t, once, Slugify(once), "slug of a slug should be itself")
	}
}
