package metadata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

var ErrIncompleteCredentials = errors.New("instance metadata returned incomplete credentials")

// Identity is everything the instance metadata service knows about who we
// are: the signing credentials plus the region and instance-profile facts
// worth logging.
type Identity struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	SessionToken       string
	AccountID          string
	InstanceProfileArn string
	RoleName           string
}

type Resolver struct {
	client   *imds.Client
	provider *ec2rolecreds.Provider
}

// NewResolver builds a resolver against the given IMDS endpoint. An empty
// endpoint uses the standard link-local address.
func NewResolver(endpoint string, httpClient *http.Client) *Resolver {
	client := imds.New(imds.Options{}, func(o *imds.Options) {
		if endpoint != "" {
			o.Endpoint = endpoint
		}
		if httpClient != nil {
			o.HTTPClient = httpClient
		}
	})
	provider := ec2rolecreds.New(func(o *ec2rolecreds.Options) {
		o.Client = client
	})
	return &Resolver{client: client, provider: provider}
}

// Resolve fetches region, role credentials, and instance-profile identity in
// one pass. A non-empty regionHint skips the region lookup. Credentials
// missing either key half are rejected rather than passed on to signing.
func (r *Resolver) Resolve(ctx context.Context, regionHint string) (Identity, error) {
	var id Identity

	id.Region = regionHint
	if id.Region == "" {
		region, err := r.Region(ctx)
		if err != nil {
			return Identity{}, err
		}
		id.Region = region
	}

	creds, err := r.provider.Retrieve(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("retrieve role credentials: %w", err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return Identity{}, ErrIncompleteCredentials
	}
	id.AccessKeyID = creds.AccessKeyID
	id.SecretAccessKey = creds.SecretAccessKey
	id.SessionToken = creds.SessionToken

	info, err := r.client.GetIAMInfo(ctx, &imds.GetIAMInfoInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("query iam info: %w", err)
	}
	id.InstanceProfileArn = info.InstanceProfileArn
	id.AccountID = accountIDFromArn(info.InstanceProfileArn)

	role, err := r.roleName(ctx)
	if err != nil {
		return Identity{}, err
	}
	id.RoleName = role

	return id, nil
}

// Region returns the region the instance runs in.
func (r *Resolver) Region(ctx context.Context) (string, error) {
	out, err := r.client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("query instance region: %w", err)
	}
	if out.Region == "" {
		return "", errors.New("instance metadata returned an empty region")
	}
	return out.Region, nil
}

func (r *Resolver) roleName(ctx context.Context) (string, error) {
	out, err := r.client.GetMetadata(ctx, &imds.GetMetadataInput{Path: "iam/security-credentials/"})
	if err != nil {
		return "", fmt.Errorf("list instance roles: %w", err)
	}
	defer out.Content.Close()

	scanner := bufio.NewScanner(out.Content)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			return name, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read instance roles: %w", err)
	}
	return "", errors.New("no iam role is attached to this instance")
}

// accountIDFromArn pulls the account out of an instance-profile ARN such as
// arn:aws:iam::123456789012:instance-profile/my-role.
func accountIDFromArn(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) < 5 {
		return ""
	}
	return parts[4]
}
