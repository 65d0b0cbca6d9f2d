package evaluation

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComparisonTextSelection(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 40)...)
	encodedPNG := base64.StdEncoding.EncodeToString(png)

	cases := []struct {
		name        string
		module      ModuleType
		output      string
		description string
		want        string
	}{
		{"script uses output", ModuleScript, "out", "desc", "out"},
		{"image prefers description", ModuleImage, "out", "desc", "desc"},
		{"image text output", ModuleImage, "a red barn", "", "a red barn"},
		{"image url output", ModuleImage, "https://x.test/a.png", "", "p"},
		{"image data uri", ModuleImage, "data:image/png;base64," + encodedPNG, "", "p"},
		{"octet stream data uri", ModuleImage, "data:application/octet-stream;base64," + encodedPNG, "", "p"},
		{"raw base64 image", ModuleImage, encodedPNG, "", "p"},
		{"empty output", ModuleImage, "", "", "p"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ComparisonText(tc.module, tc.output, tc.description, "p"), tc.name)
	}
}

func TestComparisonTextMarkup(t *testing.T) {
	cases := []struct {
		name   string
		module ModuleType
		text   string
		want   string
	}{
		{"html document", ModuleScript, "<div><script>alert(1)</script><b>Sunset</b> &amp; beach</div>", "Sunset & beach"},
		{"html description", ModuleImage, "<p>Golden sunset</p>", "Golden sunset"},
		{"comparison operators", ModuleScript, "def f(a, b): return a<b and b>0", "def f(a, b): return a<b and b>0"},
		{"generic type", ModuleScript, "List<String> names", "List<String> names"},
		{"code is untouched", ModuleCode, "<div>print(1)</div>", "<div>print(1)</div>"},
		{"blank", ModuleScript, "   ", ""},
	}

	for _, tc := range cases {
		description := ""
		if tc.module == ModuleImage {
			description = tc.text
		}
		require.Equal(t, tc.want, ComparisonText(tc.module, tc.text, description, "p"), tc.name)
	}
}

func TestPlainTextWithAngleBracketsKeepsFullSimilarity(t *testing.T) {
	const text = "def f(a, b): return a<b and b>0"
	require.Equal(t, 10.0, JaccardScore(ComparisonText(ModuleScript, text, "", ""), text, true))
}
