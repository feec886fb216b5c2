package sxfst

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// FileStat is the part of a file's attributes that tells us whether a cached
// parse of it is still valid.
type FileStat struct {
	Size    int64
	ModTime time.Time
}

func splitGoogleStoragePath(path string) (bucket, object string, err error) {
	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// OpenPath opens a local file, or a gs:// object if a storage client is
// provided.
func OpenPath(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, fmt.Errorf("%s: a storage client is required to read gs:// paths", path)
		}
		bucketName, pathName, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, err
		}

		rdr, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return rdr, nil
	}

	return os.Open(path)
}

// StatPath returns the size and modification time of a local file or gs://
// object.
func StatPath(ctx context.Context, path string, client *storage.Client) (FileStat, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return FileStat{}, fmt.Errorf("%s: a storage client is required to read gs:// paths", path)
		}
		bucketName, pathName, err := splitGoogleStoragePath(path)
		if err != nil {
			return FileStat{}, err
		}

		// Make a hard call to get the filesize
		attrs, err := client.Bucket(bucketName).Object(pathName).Attrs(ctx)
		if err != nil {
			return FileStat{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return FileStat{Size: attrs.Size, ModTime: attrs.Updated}, nil
	}

	fstat, err := os.Stat(path)
	if err != nil {
		return FileStat{}, err
	}

	return FileStat{Size: fstat.Size(), ModTime: fstat.ModTime()}, nil
}

// StorageClientFor returns a storage client if any of the paths is a gs://
// object, and nil otherwise.
func StorageClientFor(ctx context.Context, paths ...string) (*storage.Client, error) {
	for _, path := range paths {
		if IsGoogleStoragePath(path) {
			client, err := storage.NewClient(ctx)
			return client, pfx.Err(err)
		}
	}

	return nil, nil
}
