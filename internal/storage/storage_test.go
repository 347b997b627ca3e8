package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"healthcare-booking-server/internal/config"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	args := m.Called(ctx, file, params)
	res, _ := args.Get(0).(*uploader.UploadResult)
	return res, args.Error(1)
}

func (m *mockAPI) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	args := m.Called(ctx, params)
	res, _ := args.Get(0).(*uploader.DestroyResult)
	return res, args.Error(1)
}

func TestPublicID(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712345678/health-app/abc123.jpg": "health-app/abc123",
		"https://res.cloudinary.com/demo/image/upload/health-app/abc123.png":             "health-app/abc123",
		"https://res.cloudinary.com/demo/image/upload/v1/sample.webp":                    "sample",
	}
	for url, want := range cases {
		got, ok := PublicID(url)
		assert.True(t, ok, url)
		assert.Equal(t, want, got, url)
	}

	for _, url := range []string{"", "/uploads/old-local-file.jpg", "https://example.com/avatar.png"} {
		_, ok := PublicID(url)
		assert.False(t, ok, url)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(config.CloudinaryConfig{CloudName: "demo"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUpload(t *testing.T) {
	api := &mockAPI{}
	c := &Cloudinary{api: api}
	body := strings.NewReader("png-bytes")

	api.On("Upload", mock.Anything, body, mock.MatchedBy(func(p uploader.UploadParams) bool {
		return p.Folder == Folder && p.ResourceType == "image"
	})).Return(&uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/health-app/x.png"}, nil)

	url, err := c.Upload(context.Background(), body, "me.PNG")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/health-app/x.png", url)
	api.AssertExpectations(t)
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	api := &mockAPI{}
	c := &Cloudinary{api: api}
	_, err := c.Upload(context.Background(), strings.NewReader("x"), "notes.pdf")
	assert.Error(t, err)
	api.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadSurfacesAPIError(t *testing.T) {
	api := &mockAPI{}
	c := &Cloudinary{api: api}
	api.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

	_, err := c.Upload(context.Background(), strings.NewReader("x"), "a.jpg")
	assert.ErrorContains(t, err, "network down")
}

func TestDelete(t *testing.T) {
	api := &mockAPI{}
	c := &Cloudinary{api: api}
	api.On("Destroy", mock.Anything, uploader.DestroyParams{PublicID: "health-app/abc"}).
		Return(&uploader.DestroyResult{Result: "ok"}, nil)

	require.NoError(t, c.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/v9/health-app/abc.jpg"))
	require.NoError(t, c.Delete(context.Background(), "/uploads/legacy.jpg"))
	api.AssertNumberOfCalls(t, "Destroy", 1)
}
