package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectClient struct {
	putKeys    []string
	putBodies  [][]byte
	deleteKeys []string
	putErr     error
	deleteErr  error
}

func (f *fakeObjectClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKeys = append(f.putKeys, *params.Key)
	if params.Body != nil {
		body, _ := io.ReadAll(params.Body)
		f.putBodies = append(f.putBodies, body)
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectClient) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleteKeys = append(f.deleteKeys, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

// The uploader's part size matches the poster size cap, so an accepted poster
// always goes out as a single PutObject. The multipart path is unreachable;
// the stubs below exist to satisfy manager.UploadAPIClient and fail loudly if
// that ever changes.
var errUnexpectedMultipart = errors.New("unexpected multipart upload call")

func (f *fakeObjectClient) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errUnexpectedMultipart
}

func (f *fakeObjectClient) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errUnexpectedMultipart
}

func (f *fakeObjectClient) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errUnexpectedMultipart
}

func (f *fakeObjectClient) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errUnexpectedMultipart
}

var _ objectClient = (*fakeObjectClient)(nil)

func TestUploadBuildsKeyAndURL(t *testing.T) {
	client := &fakeObjectClient{}
	store := newPosterStore(client, "test-bucket", "us-east-1")

	url, err := store.Upload(context.Background(), File{
		Name:        "poster art.jpg",
		ContentType: "image/jpeg",
		Size:        12,
		Body:        strings.NewReader("poster-bytes"),
	})
	require.NoError(t, err)

	require.Len(t, client.putKeys, 1)
	key := client.putKeys[0]
	assert.True(t, strings.HasPrefix(key, "posters/"), "key %q", key)
	assert.True(t, strings.HasSuffix(key, "-poster_art.jpg"), "key %q", key)
	assert.Equal(t, "https://test-bucket.s3.us-east-1.amazonaws.com/"+key, url)
	assert.Equal(t, []byte("poster-bytes"), client.putBodies[0])
}

func TestUploadRejectsInvalidInputWithoutNetworkCall(t *testing.T) {
	tests := []struct {
		name string
		file File
		want error
	}{
		{
			name: "unsupported type",
			file: File{Name: "doc.pdf", ContentType: "application/pdf", Size: 100},
			want: ErrUnsupportedType,
		},
		{
			name: "too large",
			file: File{Name: "huge.png", ContentType: "image/png", Size: 6 * 1024 * 1024},
			want: ErrTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeObjectClient{}
			store := newPosterStore(client, "test-bucket", "us-east-1")

			_, err := store.Upload(context.Background(), tc.file)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, client.putKeys, "no object-store write should be attempted")
		})
	}
}

func TestUploadAcceptsExactSizeLimit(t *testing.T) {
	client := &fakeObjectClient{}
	store := newPosterStore(client, "test-bucket", "us-east-1")

	_, err := store.Upload(context.Background(), File{
		Name:        "limit.webp",
		ContentType: "image/webp",
		Size:        MaxPosterBytes,
		Body:        strings.NewReader(""),
	})
	require.NoError(t, err)
	assert.Len(t, client.putKeys, 1, "upload should be a single PutObject")
}

func TestDeleteDerivesKeyFromURL(t *testing.T) {
	client := &fakeObjectClient{}
	store := newPosterStore(client, "test-bucket", "us-east-1")

	store.Delete(context.Background(), "https://test-bucket.s3.us-east-1.amazonaws.com/posters/abc-poster.jpg")

	require.Len(t, client.deleteKeys, 1)
	assert.Equal(t, "posters/abc-poster.jpg", client.deleteKeys[0])
}

func TestDeleteSwallowsFailures(t *testing.T) {
	client := &fakeObjectClient{deleteErr: errors.New("network down")}
	store := newPosterStore(client, "test-bucket", "us-east-1")

	// Must not panic or propagate the error.
	store.Delete(context.Background(), "https://test-bucket.s3.us-east-1.amazonaws.com/posters/abc.jpg")
	store.Delete(context.Background(), "")
	store.Delete(context.Background(), "https://unrelated.example.com/no/bucket/here")
	assert.Empty(t, client.deleteKeys)
}
