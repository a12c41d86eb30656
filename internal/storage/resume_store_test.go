package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResumeObjectKey(t *testing.T) {
	key := ResumeObjectKey(42, `C:\Users\jane\My Resume.PDF`)
	assert.True(t, strings.HasPrefix(key, "resumes/42/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotContains(t, key, "jane")

	assert.NotEqual(t, ResumeObjectKey(1, "cv.txt"), ResumeObjectKey(1, "cv.txt"))

	noExt := ResumeObjectKey(7, "resume")
	assert.Equal(t, len("resumes/7/")+36, len(noExt))
}
