// Package poster publishes new posts from content files on disk, optionally with a media
// attachment. Either path may be a directory, in which case a random file within it is used, so a
// directory of drafts can be drained one post per run.
package poster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/lukehollenback/birdcall/platform"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

var ErrEmptyDirectory = errors.New("no candidate files in directory")
var ErrEmptyContent = errors.New("content file is empty")
var ErrContentTooLong = errors.New("content is longer than a post allows")

// The platform counts some characters double, so this only catches text which is certainly too
// long.
const maxPostCharacters = 280

type Platform interface {
	UploadMedia(ctx context.Context, filename string, r io.Reader) (platform.MediaID, error)
	PostStatus(ctx context.Context, text string, media []platform.MediaID) (*platform.Post, error)
}

type Request struct {
	// file, or directory to pick a random file from
	ContentPath string
	// optional; file or directory, like ContentPath
	MediaPath string

	// remove the (resolved) files once the post has been published
	DeleteContent bool
	DeleteMedia   bool
}

type Result struct {
	Post        *platform.Post
	ContentFile string
	MediaFile   string
}

type Poster struct {
	Client Platform
	Logger *slog.Logger
	Rand   *rand.Rand
}

func NewPoster(client Platform, logger *slog.Logger) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{
		Client: client,
		Logger: logger.With("system", "poster"),
		Rand:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Resolves path to a single file: the path itself if it is a file, or a random regular,
// non-hidden file directly inside it if it is a directory. Symlinks to regular files count as
// candidates.
func (p *Poster) ResolvePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(path, e.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyDirectory, path)
	}
	var pick string
	if p.Rand != nil {
		pick = candidates[p.Rand.IntN(len(candidates))]
	} else {
		pick = candidates[rand.IntN(len(candidates))]
	}
	return filepath.Join(path, pick), nil
}

func (p *Poster) Post(ctx context.Context, req Request) (*Result, error) {
	var res Result
	var err error

	res.ContentFile, err = p.ResolvePath(req.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("resolving content: %w", err)
	}
	raw, err := os.ReadFile(res.ContentFile)
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	text := norm.NFC.String(strings.TrimRight(string(raw), "\r\n"))
	if n := characterCount(text); n > maxPostCharacters {
		return nil, fmt.Errorf("%w: %s has %d characters", ErrContentTooLong, res.ContentFile, n)
	}

	var media []platform.MediaID
	if req.MediaPath != "" {
		res.MediaFile, err = p.ResolvePath(req.MediaPath)
		if err != nil {
			return nil, fmt.Errorf("resolving media: %w", err)
		}
		id, err := p.uploadFile(ctx, res.MediaFile)
		if err != nil {
			return nil, err
		}
		media = append(media, id)
	}
	if strings.TrimSpace(text) == "" && len(media) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContent, res.ContentFile)
	}

	res.Post, err = p.Client.PostStatus(ctx, text, media)
	if err != nil {
		return nil, fmt.Errorf("posting status: %w", err)
	}
	p.Logger.Info("posted", "post", res.Post.ID, "content", res.ContentFile, "media", res.MediaFile)

	if req.DeleteContent {
		if err := os.Remove(res.ContentFile); err != nil {
			return &res, fmt.Errorf("deleting content file: %w", err)
		}
	}
	if req.DeleteMedia && res.MediaFile != "" {
		if err := os.Remove(res.MediaFile); err != nil {
			return &res, fmt.Errorf("deleting media file: %w", err)
		}
	}
	return &res, nil
}

func (p *Poster) uploadFile(ctx context.Context, path string) (platform.MediaID, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening media: %w", err)
	}
	defer f.Close()
	id, err := p.Client.UploadMedia(ctx, filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("uploading media %s: %w", path, err)
	}
	p.Logger.Debug("uploaded media", "file", path, "media", id)
	return id, nil
}

// user-perceived characters (grapheme clusters), so an emoji sequence counts once
func characterCount(s string) int {
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		n++
	}
	return n
}
