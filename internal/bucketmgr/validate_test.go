package bucketmgr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/functionland/fula-gateway/internal/bucketmgr"
)

func TestValidateBucketName(t *testing.T) {
	valid := []string{"mybucket", "my-bucket", "my.bucket.name", "abc", "a1b2c3"}
	for _, name := range valid {
		assert.True(t, bucketmgr.ValidateBucketName(name), "expected %q to be valid", name)
	}

	invalid := []string{
		"ab",                 // too short
		"-leading-dash",      // leading dash
		"trailing-dash-",     // trailing dash
		".leading.dot",       // leading dot
		"trailing.dot.",      // trailing dot
		"double..dot",        // consecutive dots
		"Has-Upper-Case",     // uppercase not allowed
		"has_underscore",     // underscore not allowed
		"192.168.1.1",        // IP-address shaped
		"",                   // empty
	}
	for _, name := range invalid {
		assert.False(t, bucketmgr.ValidateBucketName(name), "expected %q to be invalid", name)
	}
}
