package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestPurchaseRepositoryFindByID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPurchaseRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "artwork_id", "buyer_uid", "seller_uid", "state", "price", "delivery_fee", "created_at"}).
		AddRow(7, 3, "buyer", "seller", 21, "100000", 4000, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	mock.ExpectQuery("SELECT \\* FROM `purchases` WHERE `purchases`.`id` = \\?").WillReturnRows(rows)

	p, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), p.ArtworkID)
	assert.Equal(t, 21, p.State)
	assert.Equal(t, "100000", p.Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryFindByIDNotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPurchaseRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `purchases`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryListByStates(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPurchaseRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "state"}).AddRow(2, 20).AddRow(1, 10)
	mock.ExpectQuery("SELECT \\* FROM `purchases` WHERE state IN \\(\\?,\\?\\) ORDER BY id DESC").
		WithArgs(10, 20).
		WillReturnRows(rows)

	list, err := repo.ListByStates(context.Background(), model.UnpaidStateCodes())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryDeleteMissing(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPurchaseRepository(gdb)

	mock.ExpectExec("DELETE FROM `purchases`").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtworkRepositoryAddLikeCountGuardsUnderflow(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewArtworkRepository(gdb)

	mock.ExpectExec("UPDATE `artworks` SET `like_count`=like_count \\+ \\?.* WHERE id = \\? AND like_count >= \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AddLikeCount(context.Background(), 4, -1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtworkRepositoryFindPictureNone(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewArtworkRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `artwork_pictures` WHERE artwork_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "artwork_id", "url"}))

	pic, err := repo.FindPicture(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, pic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTransactionRollsBackBothWrites(t *testing.T) {
	gdb, mock := newMockDB(t)
	store := NewStore(gdb)
	boom := errors.New("lock wait timeout")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `purchases` SET `state`=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `artworks` SET `purchase_state`=").WillReturnError(boom)
	mock.ExpectRollback()

	err := store.Transaction(context.Background(), func(tx Store) error {
		if err := tx.Purchases().UpdateState(context.Background(), 1, 30); err != nil {
			return err
		}
		return tx.Artworks().UpdatePurchaseState(context.Background(), 2, model.AvailabilityAvailable)
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTransactionCommits(t *testing.T) {
	gdb, mock := newMockDB(t)
	store := NewStore(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `purchases`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `artworks` SET `purchase_state`=").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Transaction(context.Background(), func(tx Store) error {
		if err := tx.Purchases().Delete(context.Background(), 1); err != nil {
			return err
		}
		return tx.Artworks().UpdatePurchaseState(context.Background(), 2, model.AvailabilityAvailable)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepositoryFindByIDForUpdateLocksRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPurchaseRepository(gdb)

	rows := sqlmock.NewRows([]string{"id", "artwork_id", "state"}).AddRow(7, 3, 20)
	mock.ExpectQuery("SELECT \\* FROM `purchases` WHERE `purchases`.`id` = \\?.* FOR UPDATE").WillReturnRows(rows)

	p, err := repo.FindByIDForUpdate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 20, p.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArtworkRepositoryFindByIDForUpdateLocksRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewArtworkRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `artworks` WHERE `artworks`.`id` = \\?.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByIDForUpdate(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A purchase created through the gorm store holds the artwork row lock from
// the availability check until commit.
func TestStoreCreatePurchaseLocksArtwork(t *testing.T) {
	gdb, mock := newMockDB(t)
	store := NewStore(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `artworks` WHERE `artworks`.`id` = \\?.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_uid", "price", "size", "purchase_state"}).
			AddRow(3, "artist", "100000", 5000, 0))
	mock.ExpectExec("INSERT INTO `purchases`").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE `artworks` SET `purchase_state`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Transaction(context.Background(), func(tx Store) error {
		a, err := tx.Artworks().FindByIDForUpdate(context.Background(), 3)
		if err != nil {
			return err
		}
		if a.PurchaseState != model.AvailabilityAvailable {
			return errors.New("artwork taken")
		}
		if err := tx.Purchases().Create(context.Background(), &model.Purchase{
			ArtworkID: a.ID, BuyerUID: "buyer", SellerUID: a.OwnerUID, State: 20, Price: a.Price,
		}); err != nil {
			return err
		}
		return tx.Artworks().UpdatePurchaseState(context.Background(), a.ID, model.AvailabilityReservedShipped)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
