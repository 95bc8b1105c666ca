package output

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTest(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"TEXT", ModeText, false},
		{"md", ModeMarkdown, false},
		{"markdown", ModeMarkdown, false},
		{" json ", ModeJSON, false},
		{"yaml", ModeAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown output format")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, ModeAuto, Mode("yaml"))
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty piped", "", false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json on tty", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTest(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
}

func TestHeader(t *testing.T) {
	r, out, _ := newTest(ModeMarkdown, false)
	r.Header(2, "Classes")
	assert.Equal(t, "## Classes\n\n", out.String())

	r, out, _ = newTest(ModeText, false)
	r.Header(1, "Classes")
	assert.Equal(t, "Classes\n", out.String())
}

func TestKeyValue(t *testing.T) {
	r, out, _ := newTest(ModeText, false)
	r.KeyValue(1, "State", "Running")
	assert.Equal(t, "  State => Running\n", out.String())

	r, out, _ = newTest(ModeMarkdown, false)
	r.KeyValue(0, "State", "Running")
	assert.Equal(t, "- **State** => `Running`\n", out.String())
}

func TestTable(t *testing.T) {
	rows := [][]string{{"Spooler", "Running"}, {"W32Time", "Stopped"}}

	r, out, _ := newTest(ModeMarkdown, false)
	r.Table([]string{"Name", "State"}, rows)
	assert.Contains(t, out.String(), "| Name | State |")
	assert.Contains(t, out.String(), "| Spooler | Running |")

	r, out, _ = newTest(ModeText, false)
	r.Table([]string{"Name", "State"}, rows)
	assert.Contains(t, out.String(), "W32Time")
	assert.Contains(t, out.String(), "┌")
}

func TestJSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"count": 2}))
	assert.JSONEq(t, `{"count": 2}`, out.String())
}

func TestMessages_NoANSIWhenPiped(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	r.Success("done")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "✓ done\nquiet\n", out.String())
	assert.Equal(t, "! careful\n✗ broken\n", errOut.String())
	assert.False(t, ansiPattern.MatchString(out.String()+errOut.String()))
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# A", FormatHeader(0, "A"))
	assert.Equal(t, "### A", FormatHeader(3, "A"))
}
