package followers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lukehollenback/birdcall/internal/testutil"
	"github.com/lukehollenback/birdcall/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accounts(ids ...platform.AccountID) []*platform.Account {
	out := make([]*platform.Account, len(ids))
	for i, id := range ids {
		out[i] = &platform.Account{ID: id, ScreenName: "user" + id.String(), Name: "User " + id.String()}
	}
	return out
}

func TestDownloadFreshSnapshot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	fake.FollowerList = accounts(1, 2, 3)

	path := filepath.Join(t.TempDir(), "followers.csv")
	d := NewDownloader(fake, &CSVStore{Path: path}, nil)
	sum, err := d.Download(ctx, "", false)
	require.NoError(err)
	assert.Equal(&Summary{Loaded: 0, Downloaded: 3, Saved: 3}, sum)

	raw, err := os.ReadFile(path)
	require.NoError(err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(lines, 4)
	assert.Equal("id,screen_name,name,location,bio,website,direct_message_link,direct_messaged", lines[0])
	assert.Equal("1,user1,User 1,,,,https://twitter.com/messages/compose?recipient_id=1,False", lines[1])
	for _, line := range lines[1:] {
		assert.True(strings.HasSuffix(line, ",False"))
	}
}

func TestDownloadAppendMerge(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "followers.csv")
	store := &CSVStore{Path: path}

	// N=4 existing, one already messaged
	existing := testutil.FakeAccounts(7, 100, 4)
	var seeded []*Record
	for _, acct := range existing {
		seeded = append(seeded, NewRecord(acct))
	}
	seeded[1].DirectMessaged = true
	require.NoError(store.Save(ctx, seeded))

	// M=3 new plus K=2 duplicates, with a changed screen name on one duplicate
	renamed := *existing[1]
	renamed.ScreenName = "renamed"
	fake := testutil.NewFakePlatform()
	fake.FollowersOf["someone"] = append([]*platform.Account{existing[0], &renamed}, testutil.FakeAccounts(8, 200, 3)...)

	sum, err := NewDownloader(fake, store, nil).Download(ctx, "someone", true)
	require.NoError(err)
	assert.Equal(&Summary{Loaded: 4, Downloaded: 5, Saved: 7}, sum)

	loaded, err := store.Load(ctx)
	require.NoError(err)
	require.Len(loaded, 7)

	ids := make(map[platform.AccountID]int)
	for _, rec := range loaded {
		ids[rec.ID]++
	}
	assert.Len(ids, 7)

	// existing records are untouched, including the operator's flag
	assert.Equal(seeded[1].ScreenName, loaded[1].ScreenName)
	assert.True(loaded[1].DirectMessaged)
	for _, rec := range loaded[4:] {
		assert.False(rec.DirectMessaged)
		assert.Equal(DirectMessageLink(rec.ID), rec.DirectMessageLink)
	}
}

func TestDownloadDedupesWithinFetch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := testutil.NewFakePlatform()
	fake.FollowerList = accounts(5, 6, 5)
	store := &CSVStore{Path: filepath.Join(t.TempDir(), "f.csv")}

	sum, err := NewDownloader(fake, store, nil).Download(context.Background(), "", true)
	require.NoError(err)
	assert.Equal(0, sum.Loaded)
	assert.Equal(3, sum.Downloaded)
	assert.Equal(2, sum.Saved)
}

func TestDownloadReplaceDropsOldRecords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := &CSVStore{Path: filepath.Join(t.TempDir(), "f.csv")}
	require.NoError(store.Save(ctx, []*Record{NewRecord(accounts(9)[0])}))

	fake := testutil.NewFakePlatform()
	fake.FollowerList = accounts(1)
	_, err := NewDownloader(fake, store, nil).Download(ctx, "", false)
	require.NoError(err)

	loaded, err := store.Load(ctx)
	require.NoError(err)
	require.Len(loaded, 1)
	assert.Equal(platform.AccountID(1), loaded[0].ID)
}

func TestCSVRoundTripQuoting(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	rec := &Record{
		ID:                12,
		ScreenName:        "quoter",
		Name:              `Someone "Quoted", Esq.`,
		Bio:               "line one\nline two",
		DirectMessageLink: DirectMessageLink(12),
		DirectMessaged:    true,
	}
	var buf bytes.Buffer
	require.NoError(WriteCSV(&buf, []*Record{rec}))
	assert.Contains(buf.String(), ",True\n")

	out, err := ReadCSV(&buf)
	require.NoError(err)
	require.Len(out, 1)
	assert.Equal(rec, out[0])
}

func TestReadCSVByHeader(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// reordered columns, no link column
	raw := "screen_name,id,direct_messaged\nbob,44,TRUE\n"
	out, err := ReadCSV(strings.NewReader(raw))
	require.NoError(err)
	require.Len(out, 1)
	assert.Equal(platform.AccountID(44), out[0].ID)
	assert.Equal("bob", out[0].ScreenName)
	assert.True(out[0].DirectMessaged)
	assert.Equal(DirectMessageLink(44), out[0].DirectMessageLink)

	_, err = ReadCSV(strings.NewReader("screen_name\nbob\n"))
	assert.Error(err)
	_, err = ReadCSV(strings.NewReader("id,direct_messaged\n1,maybe\n"))
	assert.Error(err)
}

func TestCSVStoreMissingFile(t *testing.T) {
	assert := assert.New(t)

	store := &CSVStore{Path: filepath.Join(t.TempDir(), "missing.csv")}
	out, err := store.Load(context.Background())
	assert.NoError(err)
	assert.Empty(out)
}

func TestNewRecordNormalizesWebsite(t *testing.T) {
	assert := assert.New(t)

	rec := NewRecord(&platform.Account{ID: 3, URL: "HTTPS://Example.COM:443/about"})
	assert.Equal("https://example.com/about", rec.Website)
	assert.Equal("", NewRecord(&platform.Account{ID: 4}).Website)
}

func TestSQLStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store, err := OpenStore("sqlite://" + filepath.Join(t.TempDir(), "followers.sqlite"))
	require.NoError(err)
	_, ok := store.(*SQLStore)
	require.True(ok)

	out, err := store.Load(ctx)
	require.NoError(err)
	assert.Empty(out)

	seeded := NewRecord(accounts(50)[0])
	seeded.DirectMessaged = true
	require.NoError(store.Save(ctx, []*Record{seeded}))

	fake := testutil.NewFakePlatform()
	fake.FollowerList = accounts(50, 51, 52)
	sum, err := NewDownloader(fake, store, nil).Download(ctx, "", true)
	require.NoError(err)
	assert.Equal(&Summary{Loaded: 1, Downloaded: 3, Saved: 3}, sum)

	out, err = store.Load(ctx)
	require.NoError(err)
	require.Len(out, 3)
	assert.Equal(platform.AccountID(50), out[0].ID)
	assert.True(out[0].DirectMessaged)
	assert.False(out[2].DirectMessaged)

	require.NoError(store.Save(ctx, nil))
	out, err = store.Load(ctx)
	require.NoError(err)
	assert.Empty(out)
}

func TestOpenStoreCSV(t *testing.T) {
	store, err := OpenStore("followers.csv")
	require.NoError(t, err)
	assert.Equal(t, &CSVStore{Path: "followers.csv"}, store)
}

func TestCSVStoreKeepsFileMode(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	dir := t.TempDir()
	fresh := &CSVStore{Path: filepath.Join(dir, "fresh.csv")}
	require.NoError(fresh.Save(ctx, nil))
	info, err := os.Stat(fresh.Path)
	require.NoError(err)
	assert.Equal(os.FileMode(0o644), info.Mode().Perm())

	shared := &CSVStore{Path: filepath.Join(dir, "shared.csv")}
	require.NoError(os.WriteFile(shared.Path, []byte("id\n"), 0o640))
	require.NoError(os.Chmod(shared.Path, 0o664))
	require.NoError(shared.Save(ctx, []*Record{NewRecord(accounts(1)[0])}))
	info, err = os.Stat(shared.Path)
	require.NoError(err)
	assert.Equal(os.FileMode(0o664), info.Mode().Perm())
}
