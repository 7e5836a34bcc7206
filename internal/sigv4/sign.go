package sigv4

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"
)

var (
	ErrMissingCredentials = errors.New("access key and secret key are required")
	ErrMissingRegion      = errors.New("signing region is required")
)

// Credentials is the scalar material needed to sign one request. SessionToken
// is empty for long-lived keys and set for role-scoped temporary credentials.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

type Signer struct {
	Region  string
	Service string
}

// headers never included in the signed set, matching what AWS itself ignores.
var unsignableHeaders = map[string]struct{}{
	"authorization":    {},
	"user-agent":       {},
	"expect":           {},
	"x-amzn-trace-id":  {},
	"x-amz-user-agent": {},
}

// Sign computes the request signature and sets the Authorization header.
// The payload hash must be the hex SHA-256 of the exact bytes the request
// body will carry; an empty string means a bodyless request. The request's
// X-Amz-Date, X-Amz-Content-Sha256 and (for temporary credentials)
// X-Amz-Security-Token headers are set here so that the transmitted values
// can never diverge from the signed ones.
func (s Signer) Sign(r *http.Request, creds Credentials, payloadHash string, signingTime time.Time) error {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return ErrMissingCredentials
	}
	if s.Region == "" {
		return ErrMissingRegion
	}
	service := s.Service
	if service == "" {
		service = "s3"
	}
	if payloadHash == "" {
		payloadHash = EmptyPayloadSHA256
	}
	if err := validatePayloadHash(payloadHash); err != nil {
		return err
	}

	t := signingTime.UTC()
	r.Header.Set("X-Amz-Date", t.Format(DateFormat))
	r.Header.Set("X-Amz-Content-Sha256", payloadHash)
	if creds.SessionToken != "" {
		r.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}

	signedHeaders := signedHeaderNames(r.Header)
	canonical, err := BuildCanonicalRequest(r, signedHeaders, payloadHash)
	if err != nil {
		return err
	}

	scope := CredentialScope{
		AccessKey: creds.AccessKeyID,
		Date:      t.Format(ShortDateFormat),
		Region:    s.Region,
		Service:   service,
		Terminal:  ScopeTerminal,
	}
	stringToSign := BuildStringToSign(canonical, t, scope)
	signature := SignatureHex(SigningKey(creds.SecretAccessKey, scope.Date, scope.Region, scope.Service), stringToSign)

	r.Header.Set("Authorization", BuildAuthorizationHeader(scope, signedHeaders, signature))
	return nil
}

func BuildAuthorizationHeader(scope CredentialScope, signedHeaders []string, signature string) string {
	return AuthHeaderPrefix +
		" Credential=" + scope.AccessKey + "/" + scope.String() +
		", SignedHeaders=" + strings.Join(signedHeaders, ";") +
		", Signature=" + signature
}

// signedHeaderNames returns "host" plus every settable request header,
// lowercased and sorted, which is the set the canonical request must list.
func signedHeaderNames(headers http.Header) []string {
	names := make([]string, 0, len(headers)+1)
	names = append(names, "host")
	for name := range headers {
		lower := strings.ToLower(name)
		if _, ok := unsignableHeaders[lower]; ok {
			continue
		}
		names = append(names, lower)
	}
	sort.Strings(names)
	return names
}
