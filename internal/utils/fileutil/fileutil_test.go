package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAtomicWriteFile tests atomic writes, including missing parent directories
// TestAtomicWriteFile 测试原子写入，包括缺失的父目录
func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "rna.yaml")

	require.NoError(t, AtomicWriteFile(path, []byte("rna:\n  enabled: true\n"), 0600))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rna:\n  enabled: true\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Overwrite keeps a single file and leaves no temp files behind
	// 覆盖写入只保留一个文件且不残留临时文件
	require.NoError(t, AtomicWriteFile(path, []byte("x"), 0600))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestOpenAndExists tests reading helpers
// TestOpenAndExists 测试读取辅助函数
func TestOpenAndExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rna.conf")
	require.NoError(t, os.WriteFile(path, []byte("pnd UpdateTimeout 1\n"), 0644))

	assert.True(t, Exists(path))
	assert.False(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing.conf")))

	f, err := Open(filepath.Join(dir, ".", "rna.conf"))
	require.NoError(t, err)
	f.Close()

	_, err = Open(filepath.Join(dir, "missing.conf"))
	assert.True(t, os.IsNotExist(err))
}
