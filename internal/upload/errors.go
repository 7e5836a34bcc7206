package upload

import "errors"

var (
	ErrInvalidBucket    = errors.New("invalid bucket name")
	ErrFileUnreadable   = errors.New("cannot read upload file")
	ErrEndpointRedirect = errors.New("endpoint redirected the upload; check the bucket region")
)
