package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeedURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	content := "# 种子列表\n" +
		"https://baikal24.ru/news/\n" +
		"\n" +
		"not a url\n" +
		"  https://baikal24.ru/news/?PAGEN_1=2  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	urls, err := ReadSeedURLs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://baikal24.ru/news/",
		"https://baikal24.ru/news/?PAGEN_1=2",
	}, urls)
}

func TestReadSeedURLs_Errors(t *testing.T) {
	_, err := ReadSeedURLs(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# 只有注释\n\n"), 0644))
	_, err = ReadSeedURLs(path)
	assert.Error(t, err)
}

func TestToInterfaceSlice(t *testing.T) {
	got := ToInterfaceSlice([]string{"a", "b"})
	assert.Equal(t, []interface{}{"a", "b"}, got)
	assert.Empty(t, ToInterfaceSlice(nil))
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[string]string{"User-Agent": "a", "Accept": "b", "Cookie": "c"})
	assert.Equal(t, []string{"Accept", "Cookie", "User-Agent"}, keys)
	assert.Empty(t, SortedKeys(nil))
}
