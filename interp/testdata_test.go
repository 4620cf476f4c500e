package interp_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnkaul/toylang/interp"
)

const testdataDir = "../testdata"
const stdlibDir = "../stdlib"

func TestTestdataProgramsProduceExpectedOutput(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"fibonacci.tl", "55\n"},
		{"struct_fields.tl", "7\n"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.file, func(t *testing.T) {
			text, err := os.ReadFile(filepath.Join(testdataDir, c.file))
			require.NoError(t, err)

			var stdout, stderr bytes.Buffer
			it := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr})
			ok, err := it.Execute(string(text))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, c.want, stdout.String())
		})
	}
}

func TestTestdataImportResolvesAgainstMountedDirectory(t *testing.T) {
	text, err := os.ReadFile(filepath.Join(testdataDir, "import_main.tl"))
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	it := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr})
	require.True(t, it.Media.Mount(testdataDir))

	ok, err := it.Execute(string(text))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello, world\n", stdout.String())
}

func TestStdlibDefinesExpectedHelpers(t *testing.T) {
	var stdout, stderr bytes.Buffer
	it := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr})
	require.True(t, it.Media.Mount(stdlibDir))

	ok, err := it.Execute(`import "std.tl"; _print(max(3, 7)); _print(min(3, 7)); _print(abs(0 - 5)); _print(range_sum(1, 4));`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7\n3\n5\n6\n", stdout.String())
}
