package cli

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/pkg/policyfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := imaging.New(16, 16, color.NRGBA{R: 120, G: 60, B: 200, A: 255})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestPolicyCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    augment.Table
		wantErr bool
	}{
		{name: "default yaml", args: []string{"policy"}, want: augment.DefaultTable()},
		{name: "uda yaml", args: []string{"policy", "--variant", "uda"}, want: augment.UDATable()},
		{name: "bad variant", args: []string{"policy", "--variant", "autoaugment"}, wantErr: true},
		{name: "bad format", args: []string{"policy", "-f", "toml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got, err := policyfile.Decode(strings.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.want.Entries(), got.Entries())
		})
	}
}

func TestPolicyCommandJSON(t *testing.T) {
	out, err := run(t, "policy", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"op": "Identity"`)
	assert.Contains(t, out, `"op": "ShearY"`)
}

func TestPolicyCommandExportsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uda.yaml")
	out, err := run(t, "policy", "--variant", "uda", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	table, err := policyfile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, augment.UDATable().Entries(), table.Entries())
}

func TestPolicyCommandBadFormatWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.yaml")
	_, err := run(t, "policy", "-o", path, "-f", "toml")
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestApplyWritesCopies(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	input := writeTestImage(t, dir, "cat.png")

	out, err := run(t, "apply", "-n", "2", "-m", "5", "--copies", "3", "--seed", "7", "--fill", "128,128,128", "-o", outDir, input)
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 3)
	for i, line := range lines {
		assert.Equal(t, filepath.Join(outDir, []string{"cat_aug000.png", "cat_aug001.png", "cat_aug002.png"}[i]), line)
		img, err := imaging.Open(line)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
	}
}

func TestApplySeedIsReproducible(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, "dog.png")

	for _, sub := range []string{"a", "b"} {
		_, err := run(t, "apply", "--seed", "99", "-o", filepath.Join(dir, sub), input)
		require.NoError(t, err)
	}

	a, err := os.ReadFile(filepath.Join(dir, "a", "dog_aug000.png"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "b", "dog_aug000.png"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestApplyWithPolicyFile(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, "bird.jpg")
	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("entries:\n  - op: Identity\n    min: 0\n    max: 1\n"), 0o644))

	out, err := run(t, "apply", "--variant", "uda", "-p", policy, "-o", dir, input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bird_aug000.jpg"), strings.TrimSpace(out))
}

func TestApplyErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeTestImage(t, dir, "x.png")
	bmp := filepath.Join(dir, "x.bmp")
	require.NoError(t, os.WriteFile(bmp, []byte("BM"), 0o644))

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{name: "no inputs", args: []string{"apply"}},
		{name: "negative n", args: []string{"apply", "-n", "-1", input}, target: augment.ErrInvalidPolicy},
		{name: "bad fill", args: []string{"apply", "--fill", "1,2,3,4,5", input}, target: augment.ErrInvalidPolicy},
		{name: "zero copies", args: []string{"apply", "-c", "0", "-o", dir, input}},
		{name: "unsupported format", args: []string{"apply", "-o", dir, bmp}},
		{name: "missing file", args: []string{"apply", "-o", dir, filepath.Join(dir, "missing.png")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
