package confidence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monicap360/move-around-tms/internal/common"
)

type fakeOrgs map[string]string

func (f fakeOrgs) Vertical(_ context.Context, orgID string) (string, error) {
	if orgID == "broken" {
		return "", errors.New("connection reset")
	}
	v, ok := f[orgID]
	if !ok {
		return "", common.NotFound("organization not found")
	}
	return v, nil
}

func TestScoreForVertical(t *testing.T) {
	store := &fakeStore{}
	vs := NewVerticalScorer(newTestScorer(store), fakeOrgs{"o1": "Waste"})

	_, err := vs.ScoreForVertical(context.Background(), "o1", Request{FieldName: "quantity", DriverID: sp("d1")})
	require.NoError(t, err)
	require.Len(t, store.queries, 2)
	assert.Equal(t, fixedNow.AddDate(0, 0, -14), store.queries[0].Since)
	// the global fallback keeps the wider site window
	assert.Equal(t, fixedNow.AddDate(0, 0, -60), store.queries[1].Since)
	assert.Equal(t, "o1", store.queries[1].OrganizationID)

	store.queries = nil
	_, err = vs.ScoreForVertical(context.Background(), "o1", Request{FieldName: "quantity", SiteID: sp("s1")})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -60), store.queries[0].Since)

	store.queries = nil
	_, err = vs.ScoreForVertical(context.Background(), "", Request{FieldName: "quantity"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -defaultWindows.Site), store.queries[0].Since)

	store.queries = nil
	_, err = vs.ScoreForVertical(context.Background(), "missing", Request{FieldName: "quantity"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -defaultWindows.Site), store.queries[0].Since)

	_, err = vs.ScoreForVertical(context.Background(), "broken", Request{FieldName: "quantity"})
	assert.ErrorContains(t, err, "load vertical")
}

func TestWindowsFor(t *testing.T) {
	assert.Equal(t, Windows{Driver: 30, Site: 120}, WindowsFor("aggregates"))
	assert.Equal(t, defaultWindows, WindowsFor("space mining"))
	for _, w := range verticalWindows {
		assert.Less(t, w.Driver, w.Site)
	}
}
