package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/convertly-go/internal/domain"
)

func setupTestRepo(t *testing.T) (*SQLiteConversionRepository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "repo-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewSQLiteConversionRepository(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func TestRepo_CreateAndFindByID(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	conversion := domain.NewConversion("/tmp/in/photo.jpg", "jpg", "webp", "", domain.EngineImageMagick)
	require.NoError(t, repo.Create(conversion))

	found, err := repo.FindByID(conversion.ID)
	require.NoError(t, err)
	assert.Equal(t, conversion.ID, found.ID)
	assert.Equal(t, "jpg", found.InputExt)
	assert.Equal(t, "webp", found.OutputFormat)
	assert.Equal(t, domain.StatusQueued, found.Status)
}

func TestRepo_FindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	found, err := repo.FindByID("nonexistent")
	require.Error(t, err)
	assert.Nil(t, found)
}

func TestRepo_UpdatePersistsStatusChange(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	conversion := domain.NewConversion("/tmp/in/clip.mp4", "mp4", "webm", "", domain.EngineFFmpeg)
	require.NoError(t, repo.Create(conversion))

	conversion.MarkCompleted("/tmp/out/clip.webm")
	require.NoError(t, repo.Update(conversion))

	found, err := repo.FindByID(conversion.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, found.Status)
	assert.Equal(t, "/tmp/out/clip.webm", found.OutputPath)
	assert.NotNil(t, found.CompletedAt)
}

func TestRepo_FindPending_OrderedByCreation(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	first := domain.NewConversion("/tmp/in/a.jpg", "jpg", "png", "", domain.EngineImageMagick)
	require.NoError(t, repo.Create(first))

	second := domain.NewConversion("/tmp/in/b.jpg", "jpg", "png", "", domain.EngineImageMagick)
	second.CreatedAt = second.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(second))

	done := domain.NewConversion("/tmp/in/c.jpg", "jpg", "png", "", domain.EngineImageMagick)
	done.MarkCompleted("/tmp/out/c.png")
	require.NoError(t, repo.Create(done))

	pending, err := repo.FindPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}

func TestRepo_FindAll_FiltersByEngine(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Create(domain.NewConversion("/tmp/in/a.jpg", "jpg", "png", "", domain.EngineImageMagick)))
	require.NoError(t, repo.Create(domain.NewConversion("/tmp/in/b.mp4", "mp4", "webm", "", domain.EngineFFmpeg)))

	found, err := repo.FindAll(map[string]interface{}{"engine": domain.EngineFFmpeg})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.EngineFFmpeg, found[0].Engine)
}

func TestRepo_ResetOrphanedProcessing(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	orphan := domain.NewConversion("/tmp/in/a.jpg", "jpg", "png", "", domain.EngineImageMagick)
	orphan.MarkProcessing()
	require.NoError(t, repo.Create(orphan))

	untouched := domain.NewConversion("/tmp/in/b.jpg", "jpg", "png", "", domain.EngineImageMagick)
	untouched.MarkCompleted("/tmp/out/b.png")
	require.NoError(t, repo.Create(untouched))

	reset, err := repo.ResetOrphanedProcessing()
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	found, err := repo.FindByID(orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, found.Status)

	found, err = repo.FindByID(untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, found.Status)
}

func TestRepo_GetStats(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	queued := domain.NewConversion("/tmp/in/a.jpg", "jpg", "png", "", domain.EngineImageMagick)
	require.NoError(t, repo.Create(queued))

	failed := domain.NewConversion("/tmp/in/b.jpg", "jpg", "png", "", domain.EngineImageMagick)
	failed.MarkFailed(assert.AnError)
	require.NoError(t, repo.Create(failed))

	completed := domain.NewConversion("/tmp/in/c.mp4", "mp4", "webm", "", domain.EngineFFmpeg)
	completed.MarkCompleted("/tmp/out/c.webm")
	require.NoError(t, repo.Create(completed))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Queued)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(0), stats.Processing)
}

func TestRepo_Delete(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	conversion := domain.NewConversion("/tmp/in/a.jpg", "jpg", "png", "", domain.EngineImageMagick)
	require.NoError(t, repo.Create(conversion))

	require.NoError(t, repo.Delete(conversion.ID))

	_, err := repo.FindByID(conversion.ID)
	assert.Error(t, err)
}
