package blobstore

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner("https://blobs.example.com", nil)
	assert.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	signer, err := NewSigner("https://blobs.example.com/", []byte("blob-secret"))
	require.NoError(t, err)

	cap, err := signer.SignDownload("jobs/j1/u1/shot.jpg", 5*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(cap.URL)
	require.NoError(t, err)
	assert.Equal(t, "blobs.example.com", u.Host)
	assert.Equal(t, "/jobs/j1/u1/shot.jpg", u.Path)
	assert.Equal(t, "GET", u.Query().Get("method"))

	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, cap.ExpiresAt.Unix(), expires)

	assert.True(t, signer.Verify("GET", "jobs/j1/u1/shot.jpg", expires, u.Query().Get("sig")))

	// Wrong method, wrong key, or doctored expiry must fail.
	assert.False(t, signer.Verify("PUT", "jobs/j1/u1/shot.jpg", expires, u.Query().Get("sig")))
	assert.False(t, signer.Verify("GET", "jobs/j1/u2/shot.jpg", expires, u.Query().Get("sig")))
	assert.False(t, signer.Verify("GET", "jobs/j1/u1/shot.jpg", expires+60, u.Query().Get("sig")))
}

func TestVerify_Expired(t *testing.T) {
	signer, err := NewSigner("https://blobs.example.com", []byte("blob-secret"))
	require.NoError(t, err)

	cap, err := signer.SignDownload("jobs/j1/u1/shot.jpg", time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(cap.URL)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	require.NoError(t, err)
	sig := u.Query().Get("sig")

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.False(t, signer.Verify("GET", "jobs/j1/u1/shot.jpg", expires, sig))
}

func TestSign_RejectsBadInput(t *testing.T) {
	signer, err := NewSigner("https://blobs.example.com", []byte("blob-secret"))
	require.NoError(t, err)

	_, err = signer.SignUpload("", time.Minute)
	assert.Error(t, err)

	_, err = signer.SignUpload("jobs/j1/u1/a.jpg", 0)
	assert.Error(t, err)
}
