package s3

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

var ErrInvalidRequestPath = errors.New("invalid s3 request path")

type AddressingStyle string

const (
	AddressingPathStyle          AddressingStyle = "path"
	AddressingVirtualHostedStyle AddressingStyle = "virtual_hosted"
)

type RequestTarget struct {
	Style  AddressingStyle
	Bucket string
	Key    string
}

// ParseRequestTarget resolves the bucket and key for an inbound request,
// accepting both virtual-hosted-style (bucket in the host) and path-style
// (bucket as the first path segment) addressing.
func ParseRequestTarget(r *http.Request) (RequestTarget, error) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	if bucket, ok := BucketFromHost(normalizeHost(r.Host)); ok {
		return RequestTarget{Style: AddressingVirtualHostedStyle, Bucket: bucket, Key: path}, nil
	}

	if path == "" {
		return RequestTarget{Style: AddressingPathStyle}, nil
	}
	parts := strings.SplitN(path, "/", 2)
	bucket := parts[0]
	if !IsValidBucketName(bucket) {
		return RequestTarget{}, ErrInvalidRequestPath
	}
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}
	return RequestTarget{Style: AddressingPathStyle, Bucket: bucket, Key: key}, nil
}

func normalizeHost(value string) string {
	host := strings.TrimSpace(value)
	if host == "" {
		return ""
	}
	if parsedHost, _, err := net.SplitHostPort(host); err == nil {
		host = parsedHost
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}
