package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/repository"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
)

func newLookupDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// postgres rejects non-UUID text for uuid columns with 22P02
	mock.ExpectQuery(".*").WillReturnError(&pq.Error{Code: "22P02"})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestGetWithMalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	db, mock := newLookupDB(t)
	beats := repository.NewBeatRepository(db)
	locations := repository.NewLocationRepository(db)
	admins := repository.NewAdminRepository(db)
	users := repository.NewUserRepository(db)

	lookups := map[string]func() error{
		"beat": func() error {
			_, err := NewBeatService(beats, locations, nil, nil, nil, nil).Get(ctx, "not-a-uuid")
			return err
		},
		"location": func() error {
			_, err := NewLocationService(locations, nil, nil, nil).Get(ctx, "not-a-uuid")
			return err
		},
		"admin": func() error {
			_, err := NewAdminService(admins, nil, locations, nil, nil, nil, nil).Get(ctx, "not-a-uuid")
			return err
		},
		"user": func() error {
			_, err := NewUserService(users, nil).Get(ctx, "not-a-uuid")
			return err
		},
	}
	for name, lookup := range lookups {
		t.Run(name, func(t *testing.T) {
			err := lookup()
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, http.StatusNotFound, appErr.Status)
			assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
		})
	}

	// none of the lookups reached the database
	assert.Error(t, mock.ExpectationsWereMet())
}

func TestListWithMalformedFilterIsValidationError(t *testing.T) {
	ctx := context.Background()
	sites := newMemSites()
	beatSvc := newBeatService(sites, nil, time.Now())

	_, _, err := beatSvc.List(ctx, dto.BeatQuery{LocationID: "lagos"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	reg := newMemRegistry()
	regSvc := newRegistrationService(t, reg, nil)
	for _, query := range []dto.RegistrationQuery{
		{RequestedBy: "manager-7"},
		{LocationID: "HQ"},
	} {
		_, _, err := regSvc.List(ctx, query)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "%+v", query)
		_, _, _, err = regSvc.Export(ctx, query, "csv")
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "%+v", query)
	}

	_, _, err = regSvc.List(ctx, dto.RegistrationQuery{RequestedBy: uuid.NewString(), LocationID: uuid.NewString()})
	assert.NoError(t, err)
}
