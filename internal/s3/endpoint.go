package s3

import "strings"

// VirtualHost returns the virtual-hosted-style endpoint host for a bucket.
// us-east-1 is the plain global endpoint; every other region carries a
// region segment. The returned value is used both as the request host and
// in the signed canonical request, so callers must not rewrite it.
func VirtualHost(bucket, region string) string {
	if region == "us-east-1" {
		return bucket + ".s3.amazonaws.com"
	}
	return bucket + ".s3-" + region + ".amazonaws.com"
}

// BucketFromHost extracts the bucket from a virtual-hosted-style host.
// It accepts both the dashed and dotted regional endpoint forms.
func BucketFromHost(host string) (string, bool) {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	idx := strings.Index(host, ".s3")
	if idx <= 0 {
		return "", false
	}
	rest := host[idx+len(".s3"):]
	if rest != ".amazonaws.com" &&
		!strings.HasPrefix(rest, "-") &&
		!strings.HasPrefix(rest, ".") {
		return "", false
	}
	bucket := host[:idx]
	if !IsValidBucketName(bucket) {
		return "", false
	}
	return bucket, true
}
