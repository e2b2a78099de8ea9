package scan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/repo/memory"
)

func setupScanTest(t *testing.T, titles ...string) (simpleslots.Service, *memory.Repository) {
	repo := memory.New()
	svc, err := simpleslots.New(
		simpleslots.WithRepository(repo),
		simpleslots.WithDoPurge(false),
	)
	require.NoError(t, err)

	actor := simpleslots.Actor{ID: uuid.New(), Name: "Loader"}
	for _, title := range titles {
		_, err := svc.EditSlot(context.Background(), simpleslots.EditSlotRequest{
			Actor: actor,
			Page:  simpleslots.PageRef{Title: title},
			Text:  "text of " + title,
		})
		require.NoError(t, err)
	}
	return svc, repo
}

func TestScanner_ForEachVisitsAllPages(t *testing.T) {
	_, repo := setupScanTest(t, "A", "B", "C", "D", "E")

	var seen []string
	result, err := New(repo).Scan(context.Background(), ScanOptions{
		BatchSize: 2,
		Processor: &funcProcessor{fn: func(ctx context.Context, page *simpleslots.Page) error {
			seen = append(seen, page.Title)
			return nil
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, seen)
	assert.Equal(t, int64(5), result.TotalFound)
	assert.Equal(t, int64(5), result.TotalProcessed)
	assert.Zero(t, result.TotalFailed)
}

func TestScanner_FailuresAreCountedAndScanContinues(t *testing.T) {
	_, repo := setupScanTest(t, "A", "B", "C")

	result, err := New(repo).ForEach(context.Background(), func(ctx context.Context, page *simpleslots.Page) error {
		if page.Title == "B" {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.TotalFound)
	assert.Equal(t, int64(2), result.TotalProcessed)
	assert.Equal(t, int64(1), result.TotalFailed)
	assert.Equal(t, []string{"B"}, result.FailedTitles)
}

func TestScanner_RequiresProcessor(t *testing.T) {
	_, repo := setupScanTest(t)

	_, err := New(repo).Scan(context.Background(), ScanOptions{})
	assert.Error(t, err)
}

func TestScanner_DryRun(t *testing.T) {
	_, repo := setupScanTest(t, "A", "B")

	result, err := New(repo).Scan(context.Background(), ScanOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalProcessed)
}

func TestScanner_Limit(t *testing.T) {
	_, repo := setupScanTest(t, "A", "B", "C", "D", "E")

	var progress []int64
	result, err := New(repo).Scan(context.Background(), ScanOptions{
		DryRun:    true,
		BatchSize: 2,
		Limit:     3,
		OnProgress: func(processed, total int64) {
			progress = append(progress, processed)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalFound)
	assert.Equal(t, []int64{2, 3}, progress)
}

func TestScanner_ListErrorStopsScan(t *testing.T) {
	lister := failingLister{err: errors.New("database down")}

	_, err := New(lister).Scan(context.Background(), ScanOptions{DryRun: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, lister.err)
}

func TestScanner_ContextCancelled(t *testing.T) {
	_, repo := setupScanTest(t, "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(repo).Scan(ctx, ScanOptions{DryRun: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefreshProcessor(t *testing.T) {
	svc, repo := setupScanTest(t, "A", "B")
	actor := simpleslots.Actor{ID: uuid.New(), Name: "Maintenance"}

	result, err := New(svc).Scan(context.Background(), ScanOptions{
		Processor: NewRefreshProcessor(svc, actor),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalProcessed)

	for _, title := range []string{"A", "B"} {
		revisions, err := repo.ListRevisions(context.Background(), title)
		require.NoError(t, err)
		require.Len(t, revisions, 2, fmt.Sprintf("page %s", title))
		assert.True(t, revisions[0].Null)
		assert.Equal(t, actor, revisions[0].Actor)
	}
}

type failingLister struct {
	err error
}

func (f failingLister) ListPages(ctx context.Context, params simpleslots.ListPagesParams) ([]*simpleslots.Page, error) {
	return nil, f.err
}
