package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestETag(t *testing.T) {
	tag := ETag([]byte("page"))
	assert.Equal(t, `"`+Sum([]byte("page"))+`"`, tag)
}

func TestMatch(t *testing.T) {
	tag := ETag([]byte("page"))

	assert.True(t, Match(tag, tag))
	assert.True(t, Match(`"other", `+tag, tag))
	assert.True(t, Match("W/"+tag, tag))
	assert.True(t, Match("*", tag))
	assert.False(t, Match("", tag))
	assert.False(t, Match(`"other"`, tag))
}
