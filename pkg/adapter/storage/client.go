// Package storage reads and writes seed objects in Cloud Storage.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	"github.com/sanuvia/sanuvia/pkg/utils/safe"
	"google.golang.org/api/option"
)

const scheme = "gs://"

type Client struct {
	client *storage.Client
}

var _ interfaces.ObjectStore = &Client{}

func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.T(errs.TagExternal))
	}

	return &Client{client: client}, nil
}

func (x *Client) PutObject(ctx context.Context, bucket, object string) io.WriteCloser {
	return x.client.Bucket(bucket).Object(object).NewWriter(ctx)
}

func (x *Client) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	rc, err := x.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		tag := errs.TagExternal
		if errors.Is(err, storage.ErrObjectNotExist) {
			tag = errs.TagNotFound
		}
		return nil, goerr.Wrap(err, "failed to create reader",
			goerr.V("bucket", bucket),
			goerr.V("object", object),
			goerr.T(tag),
		)
	}

	return rc, nil
}

func (x *Client) Close(ctx context.Context) {
	safe.Close(ctx, x.client)
}

// IsURL reports whether path is a gs:// object URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, scheme)
}

// ParseURL splits gs://bucket/object into bucket and object.
func ParseURL(url string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(url, scheme)
	if !ok {
		return "", "", goerr.New("not a gs:// URL", goerr.V("url", url), goerr.T(errs.TagValidation))
	}

	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", goerr.New("gs:// URL needs bucket and object", goerr.V("url", url), goerr.T(errs.TagValidation))
	}
	return bucket, object, nil
}
