package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/utils"
)

func TestLoadEmptyDocument(t *testing.T) {
	doc, err := Load(nil)
	require.NoError(t, err)
	assert.NotNil(t, doc.Items)
	assert.NotNil(t, doc.Reservations)
	assert.NotNil(t, doc.Students)
	// The injected digest must let the default secret in.
	assert.True(t, utils.VerifySecret(doc.AdminConfig.SecretHash, DefaultAdminSecret))
	assert.False(t, utils.VerifySecret(doc.AdminConfig.SecretHash, "wrong"))
}

func TestNormalizeDefaultsItemCategory(t *testing.T) {
	doc := &model.Document{Items: []model.Item{{ID: 1, Title: "Atlas", Available: true}}}
	Normalize(doc)
	assert.Equal(t, model.CategoryBook, doc.Items[0].Category)
}

func TestNormalizeFillsReservationFields(t *testing.T) {
	doc := &model.Document{Reservations: []model.Reservation{{
		GuardianName: "Maria Souza",
		StudentName:  "Pedro Souza",
		Grade:        "2",
		ItemTitle:    "The Little Prince",
		Timestamp:    "2024-04-01 12:53:20",
	}}}
	Normalize(doc)

	r := doc.Reservations[0]
	assert.Equal(t, model.CategoryBook, r.Category)
	assert.Equal(t, UnspecifiedClass, r.ClassName)
	require.NotEmpty(t, r.ReservationID)
	assert.True(t, strings.HasPrefix(r.ReservationID, "legacy-pedrosou-"), r.ReservationID)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := []byte(`{
        "items": [{"id": 1, "title": "Atlas", "grade": "3", "className": "Morning", "available": true}],
        "reservations": [
            {"parent_name": "Maria Souza", "student_name": "Pedro Souza", "grade": "2", "book_title": "The Little Prince", "timestamp": "2024-04-01 12:53:20"}
        ]
    }`)
	doc, err := Load(raw)
	require.NoError(t, err)

	once, err := json.Marshal(doc)
	require.NoError(t, err)

	Normalize(doc)
	twice, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, string(once), string(twice))
}

func TestLegacyIDStableAcrossLoads(t *testing.T) {
	raw := []byte(`{
        "reservations": [
            {"parent_name": "Maria Souza", "student_name": "Pedro Souza", "grade": "2", "book_title": "The Little Prince", "timestamp": "2024-04-01 12:53:20"}
        ]
    }`)
	first, err := Load(raw)
	require.NoError(t, err)
	second, err := Load(raw)
	require.NoError(t, err)
	assert.Equal(t, first.Reservations[0].ReservationID, second.Reservations[0].ReservationID)
}

func TestLegacyIDDisambiguatesIdenticalRecords(t *testing.T) {
	dup := model.Reservation{
		GuardianName: "Maria Souza",
		StudentName:  "Pedro Souza",
		Grade:        "2",
		ItemTitle:    "The Little Prince",
		Timestamp:    "2024-04-01 12:53:20",
	}
	doc := &model.Document{Reservations: []model.Reservation{dup, dup}}
	Normalize(doc)

	a := doc.Reservations[0].ReservationID
	b := doc.Reservations[1].ReservationID
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(b, a))
}

func TestFoldLegacyBooks(t *testing.T) {
	holder := "Maria Souza"
	raw, err := json.Marshal(map[string]any{
		"books": []map[string]any{
			{"id": 1, "title": "Atlas", "author": "Anon", "grade": "3", "subject": "Geography", "available": true, "reserved_by": nil},
			{"id": 2, "title": "Algebra", "author": "Anon", "grade": "4", "subject": "Math", "available": false, "reserved_by": holder},
		},
	})
	require.NoError(t, err)

	doc, err := Load(raw)
	require.NoError(t, err)
	require.Len(t, doc.Items, 2)

	first := doc.Items[0]
	assert.Equal(t, model.CategoryBook, first.Category)
	assert.Equal(t, UnspecifiedClass, first.ClassName)
	assert.True(t, first.Available)

	second := doc.Items[1]
	assert.False(t, second.Available)
	require.NotNil(t, second.ReservedByGuardian)
	assert.Equal(t, holder, *second.ReservedByGuardian)
	require.NotNil(t, second.ReservedByStudent)

	// The legacy key must be consumed so the round trip does not
	// duplicate the inventory.
	_, ok := doc.Extra("books")
	assert.False(t, ok)
}

func TestNameFragmentFallback(t *testing.T) {
	assert.Equal(t, "student", nameFragment("!!!"))
	assert.Equal(t, "anaclara", nameFragment("Ana Clara Figueiredo"))
}
