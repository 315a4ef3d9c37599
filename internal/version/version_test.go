package version

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestVersion checks the development default and the shape of release versions.
// TestVersion 检查开发默认值和发布版本格式。
func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version)
	if Version == "dev" {
		return
	}
	assert.Regexp(t, regexp.MustCompile(`^v?\d+\.\d+\.\d+`), Version)
}
