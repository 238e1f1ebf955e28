package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iconcommons/iconcommons-server/internal/errors"
)

func TestApplyStyle_NoOptionsRoundTrips(t *testing.T) {
	in := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0h10" style="fill:#123456"/></svg>`)

	out, err := ApplyStyle(in, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `style="fill:#123456"`)
}

func TestApplyStyle_MalformedDocument(t *testing.T) {
	_, err := ApplyStyle([]byte(`<svg><path`), Options{Fill: "#ff0000"})
	assert.ErrorIs(t, err, errors.ErrMalformedInput)

	_, err = ApplyStyle([]byte(``), Options{Fill: "#ff0000"})
	assert.ErrorIs(t, err, errors.ErrMalformedInput)
}

func TestApplyStyle_FillReplacesOrdinaryValue(t *testing.T) {
	in := []byte(`<svg><path style="fill:#123456;"/></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#ff0000"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "fill:#ff0000")
	assert.NotContains(t, string(out), "#123456")
}

func TestApplyStyle_FillPreservesNoneAndWhite(t *testing.T) {
	tests := []struct {
		name string
		in   string
		keep string
	}{
		{"none", `<svg><path style="fill:none;stroke:#000"/></svg>`, "fill:none"},
		{"white", `<svg><path style="fill:#ffffff"/></svg>`, "fill:#ffffff"},
		{"white uppercase", `<svg><path style="fill:#FFFFFF"/></svg>`, "fill:#FFFFFF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyStyle([]byte(tt.in), Options{Fill: "#ff0000"})
			require.NoError(t, err)
			assert.Contains(t, string(out), tt.keep)
			assert.NotContains(t, string(out), "#ff0000")
		})
	}
}

func TestApplyStyle_FillAddedWhenMissing(t *testing.T) {
	in := []byte(`<svg><path style="stroke:#000"/></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#00ff00"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "stroke:#000;fill:#00ff00")
}

func TestApplyStyle_StrokeUnconditional(t *testing.T) {
	in := []byte(`<svg><path style="stroke:none"/><rect style="stroke:#abcdef"/></svg>`)

	out, err := ApplyStyle(in, Options{Stroke: "#112233"})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(out), "stroke:#112233"))
}

func TestApplyStyle_PreservesOtherDeclarations(t *testing.T) {
	in := []byte(`<svg><path style="opacity:0.5;fill:#123456;stroke-width:2"/></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#ff0000"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "opacity:0.5;fill:#ff0000;stroke-width:2")
}

func TestApplyStyle_BareAttributes(t *testing.T) {
	in := []byte(`<svg><circle fill="#123456" r="4"/></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#ff0000", Stroke: "#000000"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `fill="#ff0000"`)
	assert.Contains(t, string(out), `stroke="#000000"`)
	assert.Contains(t, string(out), `r="4"`)
}

func TestApplyStyle_BareAttributeNonePreserved(t *testing.T) {
	in := []byte(`<svg><circle fill="none" r="4"/></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#ff0000"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `fill="none"`)
}

func TestApplyStyle_NoDeclarationsIntroducesStyle(t *testing.T) {
	in := []byte(`<svg><path d="M0 0h10"/></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#ff0000", Stroke: "#00ff00"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `style="fill:#ff0000;stroke:#00ff00"`)
}

func TestApplyStyle_OnlyShapeElements(t *testing.T) {
	in := []byte(`<svg><text style="fill:#123456">hi</text><g style="fill:#123456"><path style="fill:#123456"/></g></svg>`)

	out, err := ApplyStyle(in, Options{Fill: "#ff0000"})
	require.NoError(t, err)
	// text and g keep their fill; only the nested path changes.
	assert.Equal(t, 2, strings.Count(string(out), "fill:#123456"))
	assert.Equal(t, 1, strings.Count(string(out), "fill:#ff0000"))
}
