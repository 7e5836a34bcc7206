package sigv4

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidCredentialScope = errors.New("invalid credential scope")
	ErrInvalidAccessKey       = errors.New("invalid access key")
	ErrSignatureMismatch      = errors.New("signature does not match")
)

func ValidateScope(scope CredentialScope, region, service string) error {
	if scope.Region != region {
		return fmt.Errorf("%w: region mismatch", ErrInvalidCredentialScope)
	}
	if scope.Service != service {
		return fmt.Errorf("%w: service mismatch", ErrInvalidCredentialScope)
	}
	if scope.Terminal != ScopeTerminal {
		return fmt.Errorf("%w: terminal must be %s", ErrInvalidCredentialScope, ScopeTerminal)
	}
	return nil
}

func VerifySignature(expected, actual string) bool {
	expected = strings.ToLower(strings.TrimSpace(expected))
	actual = strings.ToLower(strings.TrimSpace(actual))
	if len(expected) == 0 || len(expected) != len(actual) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

// VerifyRequest recomputes the signature for an inbound request and compares
// it to the one the sender supplied. The receiving side of the protocol; the
// verifying test endpoint authenticates uploads with it.
func VerifyRequest(r *http.Request, auth RequestAuth, secret, region, service string) error {
	if auth.Authorization.Credential.AccessKey == "" {
		return ErrInvalidAccessKey
	}
	if err := ValidateScope(auth.Authorization.Credential, region, service); err != nil {
		return err
	}
	canonical, err := BuildCanonicalRequest(r, auth.SignedHeaders, auth.PayloadHash)
	if err != nil {
		return err
	}
	stringToSign := BuildStringToSign(canonical, auth.RequestTime, auth.Authorization.Credential)
	signingKey := SigningKey(secret, auth.Authorization.Credential.Date, auth.Authorization.Credential.Region, auth.Authorization.Credential.Service)
	expected := SignatureHex(signingKey, stringToSign)
	if !VerifySignature(expected, auth.Authorization.Signature) {
		return ErrSignatureMismatch
	}
	return nil
}
