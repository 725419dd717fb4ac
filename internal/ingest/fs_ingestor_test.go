package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/monicap360/move-around-tms/constants"
	"github.com/monicap360/move-around-tms/internal/entity"
	"github.com/monicap360/move-around-tms/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSubmitter struct {
	mu     sync.Mutex
	subs   []pipeline.Submission
	failOn string
}

func (f *fakeSubmitter) Process(_ context.Context, sub pipeline.Submission) (pipeline.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && filepath.Base(sub.Source.Path) == f.failOn {
		return pipeline.Outcome{}, errors.New("ocr down")
	}
	f.subs = append(f.subs, sub)
	return pipeline.Outcome{
		Kind:   constants.KindTicket,
		Ticket: &pipeline.TicketOutcome{Ticket: entity.Ticket{ID: uuid.New()}},
	}, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestIngestPath(t *testing.T) {
	dir := t.TempDir()
	sub := &fakeSubmitter{}
	ing := NewFSIngestor(sub, nil, WithOrganization("org-1"))

	p := writeFile(t, dir, "t1.jpg", "ticket one")
	res, err := ing.IngestPath(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "ticket", res.Kind)
	assert.NotEmpty(t, res.RecordID)
	assert.Len(t, res.HashHex, 64)
	require.Len(t, sub.subs, 1)
	assert.Equal(t, p, sub.subs[0].Source.Path)
	assert.Equal(t, "org-1", *sub.subs[0].OrganizationID)

	// same bytes under another name
	dup := writeFile(t, dir, "copy.jpg", "ticket one")
	res, err = ing.IngestPath(context.Background(), dup)
	require.NoError(t, err)
	assert.True(t, res.Deduplicated)
	assert.Len(t, sub.subs, 1)

	_, err = ing.IngestPath(context.Background(), writeFile(t, dir, "notes.txt", "x"))
	assert.Error(t, err)
}

func TestIngestPath_FailureIsRetriable(t *testing.T) {
	dir := t.TempDir()
	sub := &fakeSubmitter{failOn: "bad.png"}
	ing := NewFSIngestor(sub, nil)
	p := writeFile(t, dir, "bad.png", "x")

	_, err := ing.IngestPath(context.Background(), p)
	require.Error(t, err)

	sub.failOn = ""
	res, err := ing.IngestPath(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jpg", "a")
	writeFile(t, dir, "nested/b.pdf", "b")
	writeFile(t, dir, "nested/c.heic", "c")
	writeFile(t, dir, "readme.md", "skip")
	writeFile(t, dir, ".hidden/d.png", "d")
	writeFile(t, dir, "e.png", "a")
	writeFile(t, dir, "fail.tif", "f")

	sub := &fakeSubmitter{failOn: "fail.tif"}
	results, stats, err := NewFSIngestor(sub, nil).IngestDirectory(context.Background(), dir, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), stats.Matched)
	assert.Equal(t, uint32(4), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Len(t, results, 5)
	assert.Equal(t, 3, sub.count())

	_, _, err = NewFSIngestor(sub, nil).IngestDirectory(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.jpg", "old")
	sub := &fakeSubmitter{}
	ing := NewFSIngestor(sub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ing.Watch(ctx, WatchConfig{Roots: []string{dir}, InitialScan: true, Debounce: 20 * time.Millisecond})
	}()

	require.Eventually(t, func() bool { return sub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	writeFile(t, dir, "new.png", "fresh")
	writeFile(t, dir, "ignored.txt", "nope")
	require.Eventually(t, func() bool { return sub.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
