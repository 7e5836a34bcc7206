package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"s3put/internal/s3"
	"s3put/internal/s3err"
	"s3put/internal/sigv4"
)

// Uploader performs a single signed PUT of a local file to a bucket. One
// attempt per invocation; retry policy belongs to whatever schedules the
// tool.
type Uploader struct {
	Client *http.Client
	Signer sigv4.Signer
	Logger *slog.Logger

	// Endpoint overrides the virtual-hosted URL scheme and host, for tests
	// and S3-compatible services. The virtual host still travels in the Host
	// header so signatures match.
	Endpoint string

	Now func() time.Time
}

type Result struct {
	StatusCode int
	ETag       string
	Host       string
	Key        string
}

// Upload hashes, signs, and sends target to its bucket using creds. The
// file is read twice: once to compute the payload hash, once as the request
// body.
func (u *Uploader) Upload(ctx context.Context, creds sigv4.Credentials, target Target) (Result, error) {
	if err := target.Validate(); err != nil {
		return Result{}, err
	}

	file, err := os.Open(target.LocalPath)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", target.LocalPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", target.LocalPath, err)
	}

	payloadHash, err := hashFile(file)
	if err != nil {
		return Result{}, fmt.Errorf("hash %s: %w", target.LocalPath, err)
	}

	host := s3.VirtualHost(target.Bucket, u.Signer.Region)
	key := target.Key()

	req, err := u.buildRequest(ctx, host, key, file, info.Size())
	if err != nil {
		return Result{}, err
	}
	if err := u.Signer.Sign(req, creds, payloadHash, u.now()); err != nil {
		return Result{}, err
	}

	logger := u.logger().With("bucket", target.Bucket, "key", key, "bytes", info.Size())
	logger.Info("uploading object", "host", host, "sha256", payloadHash)

	resp, err := u.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("put object: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result := Result{
			StatusCode: resp.StatusCode,
			ETag:       strings.Trim(resp.Header.Get("ETag"), `"`),
			Host:       host,
			Key:        key,
		}
		logger.Info("upload complete", "status", resp.StatusCode, "etag", result.ETag)
		return result, nil
	case resp.StatusCode == http.StatusTemporaryRedirect:
		logger.Error("endpoint redirected the request", "location", resp.Header.Get("Location"))
		return Result{}, fmt.Errorf("%w: %s", ErrEndpointRedirect, resp.Header.Get("Location"))
	default:
		apiErr := s3err.Parse(resp.StatusCode, resp.Body)
		logger.Error("upload rejected", "status", resp.StatusCode, "code", apiErr.Code)
		return Result{}, &apiErr
	}
}

func (u *Uploader) buildRequest(ctx context.Context, host, key string, body io.Reader, size int64) (*http.Request, error) {
	url := "https://" + host + "/" + key
	if u.Endpoint != "" {
		url = strings.TrimSuffix(u.Endpoint, "/") + "/" + key
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Host = host
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	return req, nil
}

func (u *Uploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now().UTC()
}

func (u *Uploader) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

// hashFile computes the lowercase hex SHA-256 of the file and rewinds it so
// the same handle can serve as the request body.
func hashFile(file *os.File) (string, error) {
	digest := sha256.New()
	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Target names one upload: which bucket, which prefix inside it, and which
// local file.
type Target struct {
	Bucket    string
	DestDir   string
	LocalPath string
}

// Key is the object key the file lands under: the destination prefix joined
// with the file's base name, no leading slash.
func (t Target) Key() string {
	name := filepath.Base(t.LocalPath)
	dir := strings.Trim(t.DestDir, "/")
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

func (t Target) Validate() error {
	if !s3.IsValidBucketName(t.Bucket) {
		return fmt.Errorf("%w: %q", ErrInvalidBucket, t.Bucket)
	}
	info, err := os.Stat(t.LocalPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileUnreadable, t.LocalPath)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrFileUnreadable, t.LocalPath)
	}
	return nil
}
