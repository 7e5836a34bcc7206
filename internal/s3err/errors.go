package s3err

import (
	"encoding/xml"
	"errors"
	"io"
	"net/http"

	"s3put/internal/sigv4"
)

type APIError struct {
	Code       string
	Message    string
	Resource   string
	RequestID  string
	StatusCode int
}

func (e APIError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	AccessDenied          = APIError{Code: "AccessDenied", Message: "Access Denied", StatusCode: http.StatusForbidden}
	InvalidAccessKeyID    = APIError{Code: "InvalidAccessKeyId", Message: "The AWS Access Key Id you provided does not exist in our records.", StatusCode: http.StatusForbidden}
	SignatureDoesNotMatch = APIError{Code: "SignatureDoesNotMatch", Message: "The request signature we calculated does not match the signature you provided.", StatusCode: http.StatusForbidden}
	RequestTimeTooSkewed  = APIError{Code: "RequestTimeTooSkewed", Message: "The difference between the request time and the current time is too large.", StatusCode: http.StatusForbidden}
	NoSuchBucket          = APIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist.", StatusCode: http.StatusNotFound}
	NoSuchKey             = APIError{Code: "NoSuchKey", Message: "The specified key does not exist.", StatusCode: http.StatusNotFound}
	InvalidBucketName     = APIError{Code: "InvalidBucketName", Message: "The specified bucket is not valid.", StatusCode: http.StatusBadRequest}
	InvalidRequest        = APIError{Code: "InvalidRequest", Message: "The request is malformed or invalid for this operation.", StatusCode: http.StatusBadRequest}
	MethodNotAllowed      = APIError{Code: "MethodNotAllowed", Message: "The specified method is not allowed against this resource.", StatusCode: http.StatusMethodNotAllowed}
	InternalError         = APIError{Code: "InternalError", Message: "We encountered an internal error. Please try again.", StatusCode: http.StatusInternalServerError}
)

type errorResponse struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource,omitempty"`
	RequestID string   `xml:"RequestId"`
}

func Write(w http.ResponseWriter, requestID string, apiErr APIError, resource string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(apiErr.StatusCode)
	_ = xml.NewEncoder(w).Encode(errorResponse{
		Code:      apiErr.Code,
		Message:   apiErr.Message,
		Resource:  resource,
		RequestID: requestID,
	})
}

// Parse decodes the XML error envelope of a failed response. Responses with
// empty or non-XML bodies still produce an APIError carrying the status code.
func Parse(statusCode int, body io.Reader) APIError {
	apiErr := APIError{StatusCode: statusCode}
	if body != nil {
		var decoded errorResponse
		if err := xml.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&decoded); err == nil {
			apiErr.Code = decoded.Code
			apiErr.Message = decoded.Message
			apiErr.Resource = decoded.Resource
			apiErr.RequestID = decoded.RequestID
		}
	}
	if apiErr.Code == "" {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = "request failed"
	}
	return apiErr
}

// MapError translates verification failures into the S3 error vocabulary.
func MapError(err error) APIError {
	var apiErr APIError
	switch {
	case err == nil:
		return InternalError
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, sigv4.ErrInvalidAccessKey):
		return InvalidAccessKeyID
	case errors.Is(err, sigv4.ErrClockSkew):
		return RequestTimeTooSkewed
	case errors.Is(err, sigv4.ErrInvalidPayloadHash):
		return InvalidRequest
	case errors.Is(err, sigv4.ErrSignatureMismatch),
		errors.Is(err, sigv4.ErrInvalidCredentialScope),
		errors.Is(err, sigv4.ErrMalformedAuthorization),
		errors.Is(err, sigv4.ErrInvalidSignedHeaders),
		errors.Is(err, sigv4.ErrInvalidAmzDate):
		return SignatureDoesNotMatch
	default:
		return InternalError
	}
}
