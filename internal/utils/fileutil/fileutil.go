package fileutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// AtomicWriteFile writes data to a temporary file and then renames it to the target file.
// AtomicWriteFile 将数据写入临时文件，然后将其重命名为目标文件。
func AtomicWriteFile(fs afero.Fs, filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmpFile, err := afero.TempFile(fs, dir, "atomic-*.tmp")
	if err != nil {
		return err
	}
	defer fs.Remove(tmpFile.Name()) // Clean up if something fails

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(tmpFile.Name(), perm); err != nil {
		return err
	}

	return fs.Rename(tmpFile.Name(), filename)
}

// ReadTrimmed reads a small file and trims surrounding whitespace.
// A missing file yields "" and no error.
// ReadTrimmed 读取小文件并去除首尾空白；文件不存在时返回空字符串。
func ReadTrimmed(fs afero.Fs, filePath string) (string, error) {
	safePath := filepath.Clean(filePath)
	content, err := afero.ReadFile(fs, safePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}
