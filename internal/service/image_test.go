package service

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("image-bytes"))

	img, err := DecodeDataURI("data:image/jpeg;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, "jpg", img.Ext)
	assert.Equal(t, []byte("image-bytes"), img.Data)

	bad := []string{
		"",
		"image/png;base64," + payload,
		"data:image/png," + payload,
		"data:text/plain;base64," + payload,
		"data:image/png;base64,!!!",
		"data:image/png;base64,",
	}
	for _, raw := range bad {
		_, err := DecodeDataURI(raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", raw)
		assert.Equal(t, "image", verr.Field)
	}

	huge := base64.StdEncoding.EncodeToString(make([]byte, maxImageBytes+1))
	_, err = DecodeDataURI("data:image/png;base64," + huge)
	assert.Error(t, err)
}

func TestLocalImageStore(t *testing.T) {
	root := t.TempDir()
	store := NewLocalImageStore(root, "/media")
	images := NewImageService(store, zap.NewNop())
	ctx := context.Background()

	url, err := images.SaveDataURI(ctx, pngDataURI())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/recipes/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := filepath.Join(root, strings.TrimPrefix(url, "/media/"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG fake image"), data)

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, url), "deleting a missing file is not an error")
	assert.Error(t, store.Delete(ctx, "/elsewhere/x.png"))
	assert.Error(t, store.Delete(ctx, "/media/../secret"))
}
