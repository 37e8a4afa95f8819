package poster

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lukehollenback/birdcall/internal/testutil"
	"github.com/lukehollenback/birdcall/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestPostSingleFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	content := filepath.Join(dir, "hello.txt")
	writeFile(t, content, "hello world\n")

	fake := testutil.NewFakePlatform()
	res, err := NewPoster(fake, nil).Post(context.Background(), Request{ContentPath: content})
	require.NoError(err)
	require.Len(fake.Statuses, 1)
	assert.Equal("hello world", fake.Statuses[0].Text)
	assert.Empty(fake.Statuses[0].Media)
	assert.Equal(content, res.ContentFile)
	assert.NotZero(res.Post.ID)

	// not deleted unless asked
	_, err = os.Stat(content)
	assert.NoError(err)
}

func TestPostDirectoryWithMediaAndDelete(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	contentDir := t.TempDir()
	mediaDir := t.TempDir()
	writeFile(t, filepath.Join(contentDir, ".hidden"), "never posted")
	require.NoError(os.Mkdir(filepath.Join(contentDir, "subdir"), 0o755))
	writeFile(t, filepath.Join(contentDir, "draft.txt"), "from a directory")
	writeFile(t, filepath.Join(mediaDir, "cat.png"), "PNGDATA")

	fake := testutil.NewFakePlatform()
	p := NewPoster(fake, nil)
	p.Rand = rand.New(rand.NewPCG(1, 2))
	res, err := p.Post(context.Background(), Request{
		ContentPath:   contentDir,
		MediaPath:     mediaDir,
		DeleteContent: true,
		DeleteMedia:   true,
	})
	require.NoError(err)
	assert.Equal(filepath.Join(contentDir, "draft.txt"), res.ContentFile)
	assert.Equal(filepath.Join(mediaDir, "cat.png"), res.MediaFile)

	require.Len(fake.Uploads, 1)
	assert.Equal("cat.png", fake.Uploads[0].Filename)
	assert.Equal([]byte("PNGDATA"), fake.Uploads[0].Body)
	require.Len(fake.Statuses, 1)
	assert.Equal([]platform.MediaID{"media-1"}, fake.Statuses[0].Media)

	_, err = os.Stat(res.ContentFile)
	assert.True(errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(res.MediaFile)
	assert.True(errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(contentDir, ".hidden"))
	assert.NoError(err)
}

func TestPostEmptyDirectory(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".DS_Store"), "x")

	fake := testutil.NewFakePlatform()
	_, err := NewPoster(fake, nil).Post(context.Background(), Request{ContentPath: dir})
	assert.ErrorIs(err, ErrEmptyDirectory)
	assert.Empty(fake.Statuses)
}

type failingPlatform struct {
	*testutil.FakePlatform
}

func (failingPlatform) PostStatus(ctx context.Context, text string, media []platform.MediaID) (*platform.Post, error) {
	return nil, errors.New("status is a duplicate")
}

func TestPostFailureKeepsFiles(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	content := filepath.Join(dir, "post.txt")
	writeFile(t, content, "again")

	p := NewPoster(failingPlatform{testutil.NewFakePlatform()}, nil)
	_, err := p.Post(context.Background(), Request{ContentPath: content, DeleteContent: true})
	assert.ErrorContains(err, "duplicate")

	_, err = os.Stat(content)
	assert.NoError(err)
}

func TestPostEmptyContent(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "blank.txt")
	writeFile(t, content, "\n")

	_, err := NewPoster(testutil.NewFakePlatform(), nil).Post(context.Background(), Request{ContentPath: content})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestResolveMissingPath(t *testing.T) {
	_, err := NewPoster(testutil.NewFakePlatform(), nil).ResolvePath(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPostTooLong(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	content := filepath.Join(dir, "long.txt")
	writeFile(t, content, strings.Repeat("a", 281))

	fake := testutil.NewFakePlatform()
	_, err := NewPoster(fake, nil).Post(context.Background(), Request{ContentPath: content})
	assert.ErrorIs(err, ErrContentTooLong)
	assert.Empty(fake.Statuses)
}

func TestCharacterCount(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(5, characterCount("hello"))
	// family emoji: one grapheme, several code points
	assert.Equal(1, characterCount("\U0001F468\u200D\U0001F469\u200D\U0001F467"))
	assert.Equal(1, characterCount("e\u0301"))
}

func TestResolveFollowsSymlinks(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	drafts := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.txt")
	writeFile(t, target, "linked draft")

	dir := t.TempDir()
	require.NoError(os.Symlink(target, filepath.Join(dir, "link.txt")))
	require.NoError(os.Symlink(drafts, filepath.Join(dir, "linked-dir")))
	require.NoError(os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling.txt")))

	got, err := NewPoster(testutil.NewFakePlatform(), nil).ResolvePath(dir)
	require.NoError(err)
	assert.Equal(filepath.Join(dir, "link.txt"), got)
}
