// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"gunmerch/internal/models"
)

func TestDesignStore_MarkLiveRequiresApproved(t *testing.T) {
	db, mock := mockDB(t)
	s := NewDesignStore(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $3 AND status IN ('approved', 'live')")).
		WithArgs("printful", "555", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkLive(context.Background(), 9, "printful", "555")
	assert.True(t, errors.Is(err, ErrStatusConflict), "got %v", err)
}

func TestDesignStore_TransitionStatusConflict(t *testing.T) {
	db, mock := mockDB(t)
	s := NewDesignStore(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $2 AND status = $3")).
		WithArgs("approved", int64(4), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.TransitionStatus(context.Background(), 4, models.DesignStatusPending, models.DesignStatusApproved)
	assert.True(t, errors.Is(err, ErrStatusConflict), "got %v", err)
}

func TestDesignStore_TransitionStatus(t *testing.T) {
	db, mock := mockDB(t)
	s := NewDesignStore(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE designs SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3")).
		WithArgs("rejected", int64(4), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.TransitionStatus(context.Background(), 4, models.DesignStatusPending, models.DesignStatusRejected))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDesignStore_FindByIDMissing(t *testing.T) {
	db, mock := mockDB(t)
	s := NewDesignStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM designs WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	d, err := s.FindByID(context.Background(), 404)
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestDesignStore_UpdateStatusMissingRow(t *testing.T) {
	db, mock := mockDB(t)
	s := NewDesignStore(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE designs SET status = $1")).
		WithArgs("approved", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, s.UpdateStatus(context.Background(), 1, models.DesignStatusApproved))
}

func TestDesignStore_Lifecycle(t *testing.T) {
	db := testDB(t)
	s := NewDesignStore(db)
	ctx := context.Background()

	d := models.DesignDraft{
		Title:           "Range Day",
		DesignText:      "Range day is my therapy",
		Concept:         "A range target with a smile",
		TrendTopic:      "range days",
		EstimatedMargin: 40,
		Meta:            map[string]string{models.MetaHighlightWord: "therapy"},
	}.Design()

	created, err := s.Create(ctx, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanDesigns(db, created.ID) })

	found, err := s.FindByID(ctx, created.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID: %v %v", found, err)
	}
	if found.Status != models.DesignStatusPending {
		t.Errorf("status: got %q, want pending", found.Status)
	}
	if found.MetaValue(models.MetaHighlightWord) != "therapy" {
		t.Errorf("meta highlight_word: got %q", found.MetaValue(models.MetaHighlightWord))
	}

	// Publishing a pending design must not be possible.
	remoteID := "it-" + uuid.NewString()
	if err := s.MarkLive(ctx, created.ID, "printful", remoteID); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("MarkLive on pending: got %v, want ErrStatusConflict", err)
	}

	if err := s.UpdateStatus(ctx, created.ID, models.DesignStatusApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := s.MarkLive(ctx, created.ID, "printful", remoteID); err != nil {
		t.Fatalf("MarkLive: %v", err)
	}

	byRemote, err := s.FindByRemoteProductID(ctx, "printful", remoteID)
	if err != nil || byRemote == nil || byRemote.ID != created.ID {
		t.Fatalf("FindByRemoteProductID: %+v %v", byRemote, err)
	}
	if byRemote.Status != models.DesignStatusLive {
		t.Errorf("status after MarkLive: got %q", byRemote.Status)
	}

	// The same remote product may never be linked to a second design.
	other, err := s.Create(ctx, models.DesignDraft{Title: "Other"}.Design())
	if err != nil {
		t.Fatalf("Create other: %v", err)
	}
	t.Cleanup(func() { cleanDesigns(db, other.ID) })
	if err := s.UpdateStatus(ctx, other.ID, models.DesignStatusApproved); err != nil {
		t.Fatalf("UpdateStatus other: %v", err)
	}
	if err := s.MarkLive(ctx, other.ID, "printful", remoteID); err == nil {
		t.Error("expected unique violation when reusing a remote product ID")
	}

	ledger := NewSalesLedger(db)
	sale := models.Sale{Backend: "printful", OrderID: uuid.NewString(), LineID: "1", DesignID: &created.ID, Quantity: 1, UnitPrice: 24.99}
	res, err := ledger.Apply(ctx, sale)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Applied || !res.Sold {
		t.Errorf("first sale: %+v", res)
	}
	res, err = ledger.Apply(ctx, sale)
	if err != nil {
		t.Fatalf("Apply again: %v", err)
	}
	if res.Applied {
		t.Error("re-applying the same order line must be a no-op")
	}

	final, _ := s.FindByID(ctx, created.ID)
	if final.SalesCount != 1 || final.Status != models.DesignStatusSold {
		t.Errorf("final: sales %d status %q", final.SalesCount, final.Status)
	}
}
