package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) display(t *testing.T, title string, start, end time.Time) *model.Display {
	t.Helper()
	d := &model.Display{Title: title, ApplyStartAt: start, ApplyEndAt: end}
	require.NoError(t, f.store.Displays().Create(context.Background(), d))
	return d
}

func TestCurrentApplicationsWindow(t *testing.T) {
	f := newFixture(t)
	art := f.artwork(t, 100000, 5000)
	open := f.display(t, "Spring", fixedNow.Add(-24*time.Hour), fixedNow.Add(24*time.Hour))
	closed := f.display(t, "Winter", fixedNow.Add(-72*time.Hour), fixedNow.Add(-48*time.Hour))
	upcoming := f.display(t, "Summer", fixedNow.Add(48*time.Hour), fixedNow.Add(72*time.Hour))
	for _, d := range []*model.Display{open, closed, upcoming} {
		require.NoError(t, f.store.Displays().CreateContent(context.Background(), &model.DisplayContent{
			DisplayID: d.ID,
			UserUID:   artistUID,
			ArtworkID: art.ID,
		}))
	}

	apps, err := f.displays.CurrentApplications(context.Background(), artistUID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Spring", apps[0].Display.Title)
	assert.Equal(t, "Kim Artist", apps[0].UserName)
	assert.Equal(t, "Untitled", apps[0].ArtworkName)
	assert.Equal(t, DisplayStateApplied, apps[0].State)
}

func TestCurrentApplicationsEmpty(t *testing.T) {
	f := newFixture(t)
	f.display(t, "Spring", fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))

	apps, err := f.displays.CurrentApplications(context.Background(), buyerUID)
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
}

func TestApplyToDisplay(t *testing.T) {
	f := newFixture(t)
	art := f.artwork(t, 100000, 5000)
	open := f.display(t, "Spring", fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	closed := f.display(t, "Winter", fixedNow.Add(-72*time.Hour), fixedNow.Add(-48*time.Hour))

	_, err := f.displays.Apply(context.Background(), open.ID, art.ID, buyerUID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.displays.Apply(context.Background(), closed.ID, art.ID, artistUID)
	assert.ErrorIs(t, err, ErrInvalidState)

	dc, err := f.displays.Apply(context.Background(), open.ID, art.ID, artistUID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, dc.DisplayID)

	_, err = f.displays.Apply(context.Background(), open.ID, art.ID, artistUID)
	assert.ErrorIs(t, err, ErrInvalidState)
}
