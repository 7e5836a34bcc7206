package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SigningKey derives the request-scoped signing key. Each step keys the next
// HMAC with the previous step's raw output bytes; only the first step uses a
// string key, the "AWS4"-prefixed secret. The chain order is part of the
// protocol: date, then region, then service, then the terminal literal.
func SigningKey(secret, date, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte(ScopeTerminal))
}

func SignatureHex(signingKey []byte, stringToSign string) string {
	sig := hmacSHA256(signingKey, []byte(stringToSign))
	return hex.EncodeToString(sig)
}

func hmacSHA256(key, value []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(value)
	return mac.Sum(nil)
}
