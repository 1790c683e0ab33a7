package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArtwork(t *testing.T) {
	f := newFixture(t)
	art, err := f.artworks.Create(context.Background(), CreateArtworkInput{
		OwnerUID:    artistUID,
		Name:        "  Blue Hour ",
		Price:       decimal.NewFromInt(120000),
		Size:        3000,
		PictureURLs: []string{"https://example.com/a.jpg", "https://example.com/b.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Blue Hour", art.Name)

	d, err := f.artworks.Get(context.Background(), art.ID, buyerUID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.jpg", d.CoverURL)
	assert.Equal(t, "M", d.SizeClass)
	assert.Equal(t, "Kim Artist", d.ArtistName)
	assert.False(t, d.Liked)

	fee, err := f.artworks.DeliveryFee(context.Background(), art.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), fee)
}

func TestCreateArtworkValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   CreateArtworkInput
	}{
		{"blank name", CreateArtworkInput{OwnerUID: artistUID, Name: " ", Price: decimal.NewFromInt(1), Size: 1}},
		{"negative price", CreateArtworkInput{OwnerUID: artistUID, Name: "x", Price: decimal.NewFromInt(-1), Size: 1}},
		{"fractional price", CreateArtworkInput{OwnerUID: artistUID, Name: "x", Price: decimal.RequireFromString("10.5"), Size: 1}},
		{"zero size", CreateArtworkInput{OwnerUID: artistUID, Name: "x", Price: decimal.NewFromInt(1)}},
		{"data uri", CreateArtworkInput{OwnerUID: artistUID, Name: "x", Price: decimal.NewFromInt(1), Size: 1, PictureURLs: []string{"data:image/png;base64,AAAA"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.artworks.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGetArtworkNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.artworks.Get(context.Background(), 77, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.artworks.DeliveryFee(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	u, err := f.users.UpdateProfile(context.Background(), "new-user", ProfileInput{Name: " Park ", School: "SNU"})
	require.NoError(t, err)
	assert.Equal(t, "Park", u.Name)

	got, err := f.users.Get(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, "SNU", got.School)

	_, err = f.users.UpdateProfile(context.Background(), "new-user", ProfileInput{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.users.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
