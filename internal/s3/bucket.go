package s3

import (
	"net"
	"strings"
)

// IsValidBucketName applies the bucket naming rules: 3-63 characters,
// lowercase letters, digits, hyphens and dots; dot-separated labels must not
// be empty or start or end with a hyphen; the name must not be an IP address.
func IsValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if net.ParseIP(name) != nil {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if !validBucketLabel(label) {
			return false
		}
	}
	return true
}

func validBucketLabel(label string) bool {
	if label == "" {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || i == len(label)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
