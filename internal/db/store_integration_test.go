//go:build integration
// +build integration

package db

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/medcontent/internal/config"
	"github.com/jonathan/medcontent/internal/types"
)

// openIntegrationStore uses DATABASE_URL (postgres) when set and a temporary sqlite file otherwise.
func openIntegrationStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	driver, dsn := config.DriverPostgres, os.Getenv("DATABASE_URL")
	if dsn == "" {
		driver, dsn = config.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "it.db")+"?_pragma=foreign_keys(1)"
	}

	store, err := Open(ctx, driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestStore_ConcurrentRevisions(t *testing.T) {
	store := openIntegrationStore(t)
	ctx := context.Background()

	post := &types.Post{
		OwnerID:      uuid.New(),
		OriginalText: "계절이 바뀌면 피부가 건조해지기 쉽습니다.",
		Content:      "첫 번째 본문",
		Config:       types.DefaultGenerationConfig(),
	}
	require.NoError(t, store.CreatePost(ctx, post))

	const revisions = 8
	var wg sync.WaitGroup
	errs := make(chan error, revisions)
	for i := 0; i < revisions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AppendRevision(ctx, post.ID, types.Revision{
				Content: "수정된 본문",
				Config:  types.DefaultGenerationConfig(),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	versions, err := store.ListVersions(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, versions, revisions+1)

	numbers := make([]int, 0, len(versions))
	for _, v := range versions {
		numbers = append(numbers, v.VersionNumber)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, i+1, n)
	}
	assert.Equal(t, "첫 번째 본문", versions[0].Content)

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, revisions+1, got.Version)
	assert.Equal(t, "수정된 본문", got.Content)
}

func TestStore_ProfileRoundTrip(t *testing.T) {
	store := openIntegrationStore(t)
	ctx := context.Background()
	ownerID := uuid.New()

	profile, err := store.GetOrCreateProfile(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultStyleProfile(ownerID).Tone, profile.Tone)

	profile.Specialty = "피부과"
	profile.SignaturePhrases = []string{"건강한 피부"}
	require.NoError(t, store.SaveProfile(ctx, profile))

	again, err := store.GetOrCreateProfile(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "피부과", again.Specialty)
	assert.Equal(t, []string{"건강한 피부"}, again.SignaturePhrases)
}

func TestStore_GetPostNotFound(t *testing.T) {
	store := openIntegrationStore(t)

	_, err := store.GetPost(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
