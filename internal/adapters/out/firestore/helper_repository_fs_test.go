package firestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "brihaspati/internal/domain/cart"
	common "brihaspati/internal/domain/common"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"permission", status.Error(codes.PermissionDenied, "rules"), common.ErrPermissionDenied},
		{"unauthenticated", status.Error(codes.Unauthenticated, "token"), common.ErrPermissionDenied},
		{"unavailable", status.Error(codes.Unavailable, "offline"), common.ErrOffline},
		{"exhausted", status.Error(codes.ResourceExhausted, "quota"), common.ErrOffline},
		{"deadline status", status.Error(codes.DeadlineExceeded, "slow"), common.ErrOffline},
		{"deadline", context.DeadlineExceeded, common.ErrOffline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("op", tc.err)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, tc.err, "original error stays reachable")
		})
	}

	for _, err := range []error{
		status.Error(codes.FailedPrecondition, "index missing"),
		status.Error(codes.Canceled, "canceled"),
		context.Canceled,
		status.Error(codes.InvalidArgument, "bad field"),
	} {
		got := classify("op", err)
		assert.NotErrorIs(t, got, common.ErrOffline, "%v is not transient", err)
		assert.NotErrorIs(t, got, common.ErrPermissionDenied)
	}

	other := classify("op", errors.New("boom"))
	assert.NotErrorIs(t, other, common.ErrOffline)
	assert.NotErrorIs(t, other, common.ErrPermissionDenied)
	assert.EqualError(t, other, "op: boom")
	assert.NoError(t, classify("op", nil))
}

func TestAsLines(t *testing.T) {
	raw := []any{
		map[string]any{"id": "1", "name": "Pen", "price": int64(10), "image": "pen.png", "quantity": int64(2)},
		map[string]any{"id": "2", "name": "Ink", "price": 35.5, "quantity": 1.0},
		map[string]any{"id": "1", "price": int64(10), "quantity": int64(1)},
		map[string]any{"id": "", "quantity": int64(1)},
		map[string]any{"id": "3", "quantity": int64(0)},
		"garbage",
	}

	got := asLines(raw)
	assert.Equal(t, []cartdom.Line{
		{ProductID: "1", Name: "Pen", UnitPrice: 10, ImageRef: "pen.png", Quantity: 3},
		{ProductID: "2", Name: "Ink", UnitPrice: 35.5, Quantity: 1},
	}, got)

	assert.Equal(t, []cartdom.Line{}, asLines(nil))
	assert.Equal(t, []cartdom.Line{}, asLines("not an array"))
}

func TestCartRecordFromDoc(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.Nil(t, cartRecordFromDoc(map[string]any{}, stamp), "no items field")
	assert.Nil(t, cartRecordFromDoc(map[string]any{"items": "oops", "updatedAt": stamp}, stamp))
	assert.Nil(t, cartRecordFromDoc(map[string]any{"items": nil}, stamp))

	rec := cartRecordFromDoc(map[string]any{"items": []any{}}, stamp)
	if assert.NotNil(t, rec, "an empty array is a real, empty cart") {
		assert.Empty(t, rec.Items)
		assert.Equal(t, stamp, rec.UpdatedAt)
	}

	written := stamp.Add(time.Hour)
	rec = cartRecordFromDoc(map[string]any{
		"items":     []any{map[string]any{"id": "4", "price": 12.0, "quantity": int64(2)}},
		"updatedAt": written,
	}, stamp)
	if assert.NotNil(t, rec) {
		assert.Equal(t, []cartdom.Line{{ProductID: "4", UnitPrice: 12, Quantity: 2}}, rec.Items)
		assert.Equal(t, written, rec.UpdatedAt)
	}
}

func TestLinesToDocsMatchesClientShape(t *testing.T) {
	docs := linesToDocs([]cartdom.Line{{ProductID: "9", Name: "Ruler", UnitPrice: 15, Quantity: 4}})
	assert.Equal(t, []map[string]any{
		{"id": "9", "name": "Ruler", "price": 15.0, "image": "", "quantity": 4},
	}, docs)
}

func TestAsTime(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, ok := asTime(now)
	assert.True(t, ok)
	assert.Equal(t, now, got)

	got, ok = asTime("2026-01-02T03:04:05Z")
	assert.True(t, ok)
	assert.Equal(t, now, got)

	_, ok = asTime(42)
	assert.False(t, ok)
}

func TestOrderToDocNullUserID(t *testing.T) {
	doc := orderToDoc(orderdomFixture(""))
	assert.Nil(t, doc["userId"])
	doc = orderToDoc(orderdomFixture("U"))
	assert.Equal(t, "U", doc["userId"])
	assert.Equal(t, "cod", doc["paymentMethod"])
}
