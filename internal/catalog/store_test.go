package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
	"github.com/yungbote/asset-gallery-backend/internal/platform/gcp"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type countingLister struct {
	ObjectLister
	calls int32
	fail  error
}

func (c *countingLister) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fail != nil {
		return nil, c.fail
	}
	return c.ObjectLister.ListKeys(ctx, prefix)
}

type recordingBus struct {
	mu     sync.Mutex
	events []Event
}

func (b *recordingBus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func seedBucket(t *testing.T) *gcp.MemoryBucket {
	t.Helper()
	ctx := context.Background()
	b := gcp.NewMemoryBucket("")
	for _, key := range []string{
		"3D Models/.emptyFolderPlaceholder",
		"3D Models/Rock-1700000000000-rock.fbx",
		"3D Models/display-images/Rock-1700000000000-rock.png",
		"3D Models/display-images/.emptyFolderPlaceholder",
		"3D Models/Tree-1700000000500-tree.glb",
		"Lighting Profiles/Dusk-1700000000001-dusk.hdr",
	} {
		require.NoError(t, b.UploadFile(ctx, key, strings.NewReader("x")))
	}
	return b
}

func TestLoadStaticEmbeddedDefault(t *testing.T) {
	s := NewStore(logger.NewNop(), Options{})
	cat := s.LoadStatic(context.Background())

	assert.Len(t, cat[assets.CategoryModels], 9)
	assert.Len(t, cat[assets.CategoryLightingProfiles], 8)
	assert.Len(t, cat[assets.CategoryMaterialsTextures], 5)
	assert.Empty(t, cat[assets.CategoryPhysicsModels])
	assert.Equal(t, "Cube", cat[assets.CategoryModels][0].Name)
}

func TestLoadStaticFailsSoft(t *testing.T) {
	s := NewStore(logger.NewNop(), Options{Static: StaticSource{Path: filepath.Join(t.TempDir(), "missing.json")}})
	cat := s.LoadStatic(context.Background())
	assert.Empty(t, cat)
	assert.Empty(t, s.Filtered(assets.CategoryModels, ""))
}

func TestLoadStaticYAMLWithSynonymsAndDefaultPrice(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "catalog.yaml")
	doc := `
"Lighting Profiles [HDRIs]":
  - name: Dusk
    file: /hdr/dusk.hdr
    thumbnail: /thumbs/dusk.png
"Lighting Profiles":
  - name: Dawn
    file: /hdr/dawn.hdr
    thumbnail: /thumbs/dawn.png
    price: "$2"
Sounds:
  - name: Beep
    file: /beep.wav
`
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))

	s := NewStore(logger.NewNop(), Options{Static: StaticSource{Path: p}})
	cat := s.LoadStatic(context.Background())

	got := cat[assets.CategoryLightingProfiles]
	require.Len(t, got, 2)
	assert.Equal(t, "Dawn", got[0].Name)
	assert.Equal(t, "$2", got[0].Price)
	assert.Equal(t, "Dusk", got[1].Name)
	assert.Equal(t, assets.DefaultPrice, got[1].Price)
	assert.Len(t, cat, 1)
}

func TestLoadStaticFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"3D Models":[{"name":"Remote Cube","file":"/c.fbx","thumbnail":"/c.png"}]}`))
	}))
	defer srv.Close()

	s := NewStore(logger.NewNop(), Options{Static: StaticSource{URL: srv.URL + "/catalog.json"}})
	cat := s.LoadStatic(context.Background())
	require.Len(t, cat[assets.CategoryModels], 1)
	assert.Equal(t, "Remote Cube", cat[assets.CategoryModels][0].Name)
}

func TestLoadStaticMalformedJSONFailsSoft(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))
	s := NewStore(logger.NewNop(), Options{Static: StaticSource{Path: p}})
	assert.Empty(t, s.LoadStatic(context.Background()))
}

func TestLoadRemotePairsDisplayImagesAndDropsSentinels(t *testing.T) {
	b := seedBucket(t)
	s := NewStore(logger.NewNop(), Options{Remote: b})

	recs, err := s.LoadRemote(context.Background(), assets.CategoryModels)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Rock", recs[0].Name)
	assert.Equal(t, "memory://3D Models/Rock-1700000000000-rock.fbx", recs[0].File)
	assert.Equal(t, "memory://3D Models/display-images/Rock-1700000000000-rock.png", recs[0].Thumbnail)
	assert.Equal(t, "FREE", recs[0].Price)

	assert.Equal(t, "Tree", recs[1].Name)
	assert.Empty(t, recs[1].Thumbnail)
}

func TestLoadRemoteNoopForStaticOnlyCategories(t *testing.T) {
	lister := &countingLister{ObjectLister: seedBucket(t)}
	s := NewStore(logger.NewNop(), Options{Remote: lister})

	recs, err := s.LoadRemote(context.Background(), assets.CategoryMaterialsTextures)
	require.NoError(t, err)
	assert.Nil(t, recs)
	require.NoError(t, s.EnsureRemote(context.Background(), assets.CategoryPhysicsModels))
	assert.Equal(t, int32(0), atomic.LoadInt32(&lister.calls))
}

func TestEnsureRemoteIsOncePerCategory(t *testing.T) {
	lister := &countingLister{ObjectLister: seedBucket(t)}
	s := NewStore(logger.NewNop(), Options{Remote: lister})
	s.LoadStatic(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.EnsureRemote(context.Background(), assets.CategoryModels))
		}()
	}
	wg.Wait()
	require.NoError(t, s.EnsureRemote(context.Background(), assets.CategoryModels))

	assert.Equal(t, int32(1), atomic.LoadInt32(&lister.calls))
	assert.Equal(t, 11, s.Len(assets.CategoryModels))

	all := s.Filtered(assets.CategoryModels, "")
	assert.Equal(t, "Cube", all[0].Name, "static records come first")
	assert.Equal(t, "Tree", all[len(all)-1].Name)
}

func TestEnsureRemoteRetriesAfterFailure(t *testing.T) {
	lister := &countingLister{ObjectLister: seedBucket(t), fail: errors.New("unreachable")}
	s := NewStore(logger.NewNop(), Options{Remote: lister})

	err := s.EnsureRemote(context.Background(), assets.CategoryLightingProfiles)
	var ne *assets.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 0, s.Len(assets.CategoryLightingProfiles))

	lister.fail = nil
	require.NoError(t, s.EnsureRemote(context.Background(), assets.CategoryLightingProfiles))
	assert.Equal(t, 1, s.Len(assets.CategoryLightingProfiles))
	assert.Equal(t, int32(2), atomic.LoadInt32(&lister.calls))
}

func TestWarmFetchesUploadEnabledCategories(t *testing.T) {
	lister := &countingLister{ObjectLister: seedBucket(t)}
	s := NewStore(logger.NewNop(), Options{Remote: lister})
	s.Warm(context.Background())

	assert.Equal(t, int32(2), atomic.LoadInt32(&lister.calls))
	assert.Equal(t, 2, s.Len(assets.CategoryModels))
	assert.Equal(t, 1, s.Len(assets.CategoryLightingProfiles))
}

func TestFilteredIsCaseInsensitiveAndOrdered(t *testing.T) {
	s := NewStore(logger.NewNop(), Options{})
	s.Merge(assets.CategoryModels, []assets.AssetRecord{
		{Name: "Iron Man"},
		{Name: ".emptyFolderPlaceholder"},
		{Name: "iron bar"},
		{Name: "Chair"},
		{Name: "Iron Man"},
	})

	got := s.Filtered(assets.CategoryModels, "IRON")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Iron Man", "iron bar", "Iron Man"}, names(got))
	assert.Len(t, s.Filtered(assets.CategoryModels, ""), 4)
	assert.Empty(t, s.Filtered(assets.CategoryModels, "zzz"))
}

func TestPublishAppendsAndBroadcasts(t *testing.T) {
	bus := &recordingBus{}
	s := NewStore(logger.NewNop(), Options{Bus: bus})
	rec := assets.AssetRecord{Name: "Rock", File: "memory://a", Thumbnail: "memory://b", Price: "FREE"}

	require.NoError(t, s.Publish(context.Background(), assets.CategoryModels, rec))
	require.NoError(t, s.Publish(context.Background(), assets.CategoryModels, rec))

	assert.Equal(t, 2, s.Len(assets.CategoryModels), "duplicates are distinct records")
	require.Len(t, bus.events, 2)
	assert.Equal(t, s.Origin(), bus.events[0].Origin)

	err := s.Publish(context.Background(), assets.Category("nope"), rec)
	var ve *assets.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestApplySkipsOwnEvents(t *testing.T) {
	s := NewStore(logger.NewNop(), Options{})
	rec := assets.AssetRecord{Name: "Rock"}

	require.NoError(t, s.Apply(Event{Origin: s.Origin(), Category: assets.CategoryModels, Record: rec}))
	assert.Equal(t, 0, s.Len(assets.CategoryModels))

	require.NoError(t, s.Apply(Event{Origin: "other", Category: assets.CategoryModels, Record: rec}))
	assert.Equal(t, 1, s.Len(assets.CategoryModels))

	assert.Error(t, s.Apply(Event{Origin: "other", Category: "bogus", Record: rec}))
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewStore(logger.NewNop(), Options{})
	s.Merge(assets.CategoryModels, []assets.AssetRecord{{Name: "A", Maps: map[assets.MapKind]string{assets.MapNormal: "n.png"}}})

	snap := s.Snapshot()
	snap[assets.CategoryModels][0].Maps[assets.MapNormal] = "changed"
	snap[assets.CategoryModels] = append(snap[assets.CategoryModels], assets.AssetRecord{Name: "B"})

	rec, ok := s.Find(assets.CategoryModels, "A")
	require.True(t, ok)
	assert.Equal(t, "n.png", rec.Maps[assets.MapNormal])
	assert.Equal(t, 1, s.Len(assets.CategoryModels))
}

func names(recs []assets.AssetRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestEnsureRemoteReportsToObserver(t *testing.T) {
	lister := &countingLister{ObjectLister: seedBucket(t), fail: errors.New("unreachable")}
	type call struct {
		category assets.Category
		failed   bool
		records  int
	}
	var calls []call
	s := NewStore(logger.NewNop(), Options{
		Remote: lister,
		Observer: func(c assets.Category, err error, n int) {
			calls = append(calls, call{c, err != nil, n})
		},
	})

	_ = s.EnsureRemote(context.Background(), assets.CategoryModels)
	lister.fail = nil
	require.NoError(t, s.EnsureRemote(context.Background(), assets.CategoryModels))
	require.NoError(t, s.EnsureRemote(context.Background(), assets.CategoryModels))

	require.Len(t, calls, 2)
	assert.Equal(t, call{assets.CategoryModels, true, 0}, calls[0])
	assert.Equal(t, call{assets.CategoryModels, false, 2}, calls[1])
}

func TestPublishBeforeFirstListingIsNotMergedTwice(t *testing.T) {
	ctx := context.Background()
	bucket := seedBucket(t)
	s := NewStore(logger.NewNop(), Options{Remote: bucket})
	rec := assets.AssetRecord{
		Name:      "Rock",
		File:      bucket.GetPublicURL("3D Models/Rock-1700000000000-rock.fbx"),
		Thumbnail: bucket.GetPublicURL("3D Models/display-images/Rock-1700000000000-rock.png"),
		Price:     assets.DefaultPrice,
	}

	require.NoError(t, s.Publish(ctx, assets.CategoryModels, rec))
	require.NoError(t, s.EnsureRemote(ctx, assets.CategoryModels))

	got := s.Filtered(assets.CategoryModels, "rock")
	if len(got) != 1 {
		t.Fatalf("rock records: want=1 got=%d (%v)", len(got), got)
	}
	assert.Equal(t, []string{"Rock", "Tree"}, names(s.Filtered(assets.CategoryModels, "")))
}

func TestApplyBeforeFirstListingIsNotMergedTwice(t *testing.T) {
	ctx := context.Background()
	bucket := seedBucket(t)
	s := NewStore(logger.NewNop(), Options{Remote: bucket})
	rec := assets.AssetRecord{Name: "Dusk", File: bucket.GetPublicURL("Lighting Profiles/Dusk-1700000000001-dusk.hdr")}

	require.NoError(t, s.Apply(Event{Origin: "other", Category: assets.CategoryLightingProfiles, Record: rec}))
	require.NoError(t, s.EnsureRemote(ctx, assets.CategoryLightingProfiles))

	if n := s.Len(assets.CategoryLightingProfiles); n != 1 {
		t.Fatalf("lighting records: want=1 got=%d", n)
	}
}

func TestSameNameDifferentObjectSurvivesListing(t *testing.T) {
	ctx := context.Background()
	bucket := seedBucket(t)
	s := NewStore(logger.NewNop(), Options{Remote: bucket})
	other := assets.AssetRecord{Name: "Rock", File: bucket.GetPublicURL("3D Models/Rock-1700000009999-rock.fbx")}

	require.NoError(t, s.Publish(ctx, assets.CategoryModels, other))
	require.NoError(t, s.EnsureRemote(ctx, assets.CategoryModels))

	if n := len(s.Filtered(assets.CategoryModels, "rock")); n != 2 {
		t.Fatalf("distinct Rock records: want=2 got=%d", n)
	}
}
