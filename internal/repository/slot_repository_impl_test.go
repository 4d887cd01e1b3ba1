package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSlotTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestSlotBook(t *testing.T) {
	db, mock := newSlotTestDB(t)
	repo := NewSlotRepository()
	slotID := uuid.New()

	t.Run("books a free future slot", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "slots" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Book(db, slotID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("matches zero rows when the slot is taken or past", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "slots" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.Book(db, slotID, time.Now())
		require.NoError(t, err)
		assert.Zero(t, rows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRelease(t *testing.T) {
	db, mock := newSlotTestDB(t)
	repo := NewSlotRepository()

	t.Run("releases a booked slot", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "slots" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Release(db, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("matches zero rows when the slot was never booked", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "slots" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.Release(db, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, rows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotFindByID(t *testing.T) {
	db, mock := newSlotTestDB(t)
	repo := NewSlotRepository()
	slotID := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "slots"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "doctor_id", "start_time", "end_time", "is_booked"}).
				AddRow(slotID, uuid.New(), start, start.Add(30*time.Minute), false))

		slot, err := repo.FindByID(db, slotID)
		require.NoError(t, err)
		require.NotNil(t, slot)
		assert.Equal(t, slotID, slot.ID)
		assert.False(t, slot.IsBooked)
	})

	t.Run("missing slot yields nil without error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "slots"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		slot, err := repo.FindByID(db, slotID)
		require.NoError(t, err)
		assert.Nil(t, slot)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotPurgeBefore(t *testing.T) {
	db, mock := newSlotTestDB(t)
	repo := NewSlotRepository()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "slots"`)).
		WillReturnResult(sqlmock.NewResult(0, 7))

	purged, err := repo.PurgeBefore(db, time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(7), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
