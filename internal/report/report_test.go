package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/frederic-klein/susepkg/internal/dist"
	"github.com/frederic-klein/susepkg/internal/errs"
	"github.com/frederic-klein/susepkg/internal/version"
)

var packages = []dist.Package{
	{Name: "bash", Product: "SLES/15.5", Version: version.New("5.2", "1.1")},
	{Name: "bash-completion", Product: "Leap/15.6", Version: version.New("2.11", "5.1")},
}

func TestEmitter_Emit_Text(t *testing.T) {
	tests := []struct {
		name     string
		packages []dist.Package
		want     string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:     "aligned columns",
			packages: packages,
			want: "SLES/15.5  bash             5.2-1.1\n" +
				"Leap/15.6  bash-completion  2.11-5.1\n",
		},
		{
			name: "wide characters",
			packages: []dist.Package{
				{Name: "日本語", Product: "P", Version: version.New("1", "1")},
				{Name: "abcdef", Product: "P", Version: version.New("2", "1")},
			},
			want: "P  日本語  1-1\n" +
				"P  abcdef  2-1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewEmitter(&buf, FormatText).Emit(tt.packages))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEmitter_Emit_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, FormatJSON).Emit(packages[:1]))

	want := `[
  {
    "name": "bash",
    "product": "SLES/15.5",
    "version": {
      "version": "5.2",
      "release": "1.1"
    }
  }
]
`
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, NewEmitter(&buf, FormatJSON).Emit(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestEmitter_Emit_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, FormatYAML).Emit(packages))

	var got []dist.Package
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, packages, got)
	assert.Contains(t, buf.String(), "- name: bash\n  product: SLES/15.5\n")
}

func TestEmitter_EmitProducts(t *testing.T) {
	products := []dist.Product{
		{Name: "SLES/15.6", ID: 2609},
		{Name: "openSUSE_Tumbleweed", Family: dist.FamilyCommunity},
	}

	var buf bytes.Buffer
	require.NoError(t, NewEmitter(&buf, FormatText).EmitProducts(products))
	assert.Equal(t, "SLES/15.6\nopenSUSE_Tumbleweed\n", buf.String())

	buf.Reset()
	require.NoError(t, NewEmitter(&buf, FormatJSON).EmitProducts(products))
	assert.Equal(t, "[\n  \"SLES/15.6\",\n  \"openSUSE_Tumbleweed\"\n]\n", buf.String())

	buf.Reset()
	require.NoError(t, NewEmitter(&buf, FormatYAML).EmitProducts(products))
	assert.Equal(t, "- SLES/15.6\n- openSUSE_Tumbleweed\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalid))
	assert.Equal(t, "Invalid output format: xml", errs.Message(err))
}
