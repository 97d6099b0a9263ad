package bucketmgr

import (
	"net"
	"strings"
)

// ValidateBucketName applies the S3 bucket-naming rules the
// BucketManager enforces on every create. The rule set mirrors AWS's
// documented constraints for general-purpose buckets.
func ValidateBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if net.ParseIP(name) != nil {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '.':
		default:
			return false
		}
		if i == 0 && (r == '-' || r == '.') {
			return false
		}
	}
	return true
}
