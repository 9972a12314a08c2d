package fieldindex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Index
	}{
		{
			name:     "keeps names in order",
			line:     `count,"title=10,description=8,rights=5"`,
			expected: Index{"title", "description", "rights"},
		},
		{
			name:     "drops duplicate names",
			line:     `count,"title=10,rights=5,title=3"`,
			expected: Index{"title", "rights"},
		},
		{
			name:     "name without count",
			line:     `fields,"dc:title,dc:creator=4"`,
			expected: Index{"dc:title", "dc:creator"},
		},
		{
			name:     "spaces around names",
			line:     `count,"title=10, description=8 ,rights=5"`,
			expected: Index{"title", "description", "rights"},
		},
		{
			name:     "trailing newline",
			line:     "count,\"title=1\"\r\n",
			expected: Index{"title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, err := ParseHeader(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, index)
		})
	}
}

func TestParseHeaderMalformed(t *testing.T) {
	lines := []string{
		"badline",
		"",
		`count,title=10,description=8`,
		`count,""`,
		`,"title=1"`,
		`count,"title=1,=2"`,
		`count,"title=1, =2"`,
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			index, err := ParseHeader(line)
			assert.Nil(t, index)

			var headerErr *MalformedHeaderError
			require.True(t, errors.As(err, &headerErr), "expected MalformedHeaderError, got %v", err)
		})
	}
}

func TestReadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fields.csv")
	content := "count,\"title=10,description=8,rights=5\"\nsecond line is ignored\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	index, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, Index{"title", "description", "rights"}, index)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = ReadHeader(empty)
	var headerErr *MalformedHeaderError
	assert.True(t, errors.As(err, &headerErr))

	_, err = ReadHeader(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
