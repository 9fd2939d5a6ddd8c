package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/schema"
	"github.com/villaedu/reserva/internal/store"
)

// newFixture seeds a memory store with a small inventory and returns the
// engine plus a freshly loaded document and token, the way a handler
// would obtain them.
func newFixture(t *testing.T, items ...model.Item) (*ReservationEngine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	eng := NewReservationEngine(st, DefaultQuotas())

	doc := &model.Document{Items: items}
	schema.Normalize(doc)
	require.NoError(t, eng.submit(context.Background(), doc, "", "seed"))
	return eng, st
}

func loadDoc(t *testing.T, st store.Store) (*model.Document, string) {
	t.Helper()
	raw, token, err := st.Read(context.Background())
	require.NoError(t, err)
	doc, err := schema.Load(raw)
	require.NoError(t, err)
	return doc, token
}

// checkHolderInvariant asserts that availability and the holder fields
// move together on every item.
func checkHolderInvariant(t *testing.T, doc *model.Document) {
	t.Helper()
	for _, item := range doc.Items {
		if item.Available {
			assert.Nil(t, item.ReservedByGuardian, "available item %d must have no guardian", item.ID)
			assert.Nil(t, item.ReservedByStudent, "available item %d must have no student", item.ID)
		} else {
			assert.NotNil(t, item.ReservedByGuardian, "reserved item %d must have a guardian", item.ID)
			assert.NotNil(t, item.ReservedByStudent, "reserved item %d must have a student", item.ID)
		}
	}
}

func bookItem(id int64, title string) model.Item {
	return model.Item{ID: id, Title: title, Category: model.CategoryBook, Grade: "3", ClassName: "Morning", Available: true}
}

func TestReserveHappyPath(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	res, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)
	assert.Equal(t, "Atlas", res.ItemTitle)
	assert.Equal(t, model.CategoryBook, res.Category)
	require.NotNil(t, res.ItemID)
	assert.EqualValues(t, 1, *res.ItemID)

	stored, _ := loadDoc(t, st)
	require.Len(t, stored.Reservations, 1)
	item := stored.FindItem(1)
	require.NotNil(t, item)
	assert.False(t, item.Available)
	assert.Equal(t, "Maria Souza", *item.ReservedByGuardian)
	assert.Equal(t, "Pedro Souza", *item.ReservedByStudent)
	checkHolderInvariant(t, stored)
}

func TestReserveUnavailableItem(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	_, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	doc, token = loadDoc(t, st)
	_, err = eng.Reserve(ctx, doc, token, 1, "Ana Lima", "Bia Lima")
	assert.ErrorIs(t, err, ErrAlreadyReserved)
}

func TestReserveUnknownItem(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	doc, token := loadDoc(t, st)
	_, err := eng.Reserve(context.Background(), doc, token, 99, "Maria Souza", "Pedro Souza")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveRaceAdmitsOneWinner(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	ctx := context.Background()

	// Two families read the same snapshot and race for the same item.
	docA, tokenA := loadDoc(t, st)
	docB, tokenB := loadDoc(t, st)
	require.Equal(t, tokenA, tokenB)

	_, errA := eng.Reserve(ctx, docA, tokenA, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, errA)

	_, errB := eng.Reserve(ctx, docB, tokenB, 1, "Ana Lima", "Bia Lima")
	assert.ErrorIs(t, errB, ErrConflict)

	// No double booking: the stored document has exactly one reservation
	// and the winner's holder on the item.
	stored, _ := loadDoc(t, st)
	require.Len(t, stored.Reservations, 1)
	assert.Equal(t, "Maria Souza", stored.Reservations[0].GuardianName)
	checkHolderInvariant(t, stored)
}

func TestQuotaExceededLeavesStoreUntouched(t *testing.T) {
	items := []model.Item{
		bookItem(1, "Atlas"), bookItem(2, "Algebra"), bookItem(3, "Fables"), bookItem(4, "Poems"),
		{ID: 5, Title: "Chess Set", Category: model.CategoryGame, Grade: "3", ClassName: "Morning", Available: true},
	}
	eng, st := newFixture(t, items...)
	ctx := context.Background()

	// Primary segment allows three books.
	for _, id := range []int64{1, 2, 3} {
		doc, token := loadDoc(t, st)
		_, err := eng.Reserve(ctx, doc, token, id, "Maria Souza", "Pedro Souza")
		require.NoError(t, err)
	}

	_, before, err := st.Read(ctx)
	require.NoError(t, err)

	doc, token := loadDoc(t, st)
	_, err = eng.Reserve(ctx, doc, token, 4, "Maria Souza", "Pedro Souza")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, after, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a quota rejection must not write")

	// A different category is unaffected.
	doc, token = loadDoc(t, st)
	_, err = eng.Reserve(ctx, doc, token, 5, "Maria Souza", "Pedro Souza")
	assert.NoError(t, err)
}

func TestQuotaRemainingFloorsAtZero(t *testing.T) {
	eng, _ := newFixture(t)
	doc := &model.Document{}
	schema.Normalize(doc)
	// Four book reservations against a limit of three.
	for i := 0; i < 4; i++ {
		doc.Reservations = append(doc.Reservations, model.Reservation{
			ReservationID: string(rune('a' + i)),
			Category:      model.CategoryBook,
			StudentName:   "Pedro Souza",
			Grade:         "3",
		})
	}
	remaining := eng.QuotaRemaining(doc, "Pedro Souza", "3")
	assert.Equal(t, 0, remaining[model.CategoryBook])
	assert.Equal(t, 2, remaining[model.CategoryGame])
}

func TestQuotaSegments(t *testing.T) {
	eng, _ := newFixture(t)
	doc := &model.Document{}
	schema.Normalize(doc)
	assert.Equal(t, 2, eng.QuotaRemaining(doc, "Pedro Souza", "Pre-K")[model.CategoryBook])
	assert.Equal(t, 3, eng.QuotaRemaining(doc, "Pedro Souza", "3")[model.CategoryBook])
}

func TestCancelThenReserveAgain(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	res, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	doc, token = loadDoc(t, st)
	require.NoError(t, eng.Cancel(ctx, doc, token, 1, "Maria Souza", res.ReservationID, false))

	stored, _ := loadDoc(t, st)
	assert.Empty(t, stored.Reservations)
	item := stored.FindItem(1)
	require.NotNil(t, item)
	assert.True(t, item.Available)
	checkHolderInvariant(t, stored)

	doc, token = loadDoc(t, st)
	_, err = eng.Reserve(ctx, doc, token, 1, "Ana Lima", "Bia Lima")
	require.NoError(t, err)

	stored, _ = loadDoc(t, st)
	require.Len(t, stored.Reservations, 1)
	assert.Equal(t, "Ana Lima", stored.Reservations[0].GuardianName)
}

func TestCancelByWrongGuardian(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	_, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	doc, token = loadDoc(t, st)
	err = eng.Cancel(ctx, doc, token, 1, "Ana Lima", "", false)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admin override bypasses the holder check.
	doc, token = loadDoc(t, st)
	assert.NoError(t, eng.Cancel(ctx, doc, token, 1, "", "", true))
}

func TestCancelMatchesByItemIDForLegacyRecords(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	_, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	// No reservation id supplied: the record is found through the item.
	doc, token = loadDoc(t, st)
	require.NoError(t, eng.Cancel(ctx, doc, token, 1, "maria souza", "", false))

	stored, _ := loadDoc(t, st)
	assert.Empty(t, stored.Reservations)
}

func TestCancelRejectsMismatchedItemAndReservation(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"), bookItem(2, "Algebra"))
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	_, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	doc, token = loadDoc(t, st)
	resB, err := eng.Reserve(ctx, doc, token, 2, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	// Cancelling item 1 while naming item 2's reservation must not free
	// either item.
	doc, token = loadDoc(t, st)
	err = eng.Cancel(ctx, doc, token, 1, "Maria Souza", resB.ReservationID, false)
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := loadDoc(t, st)
	require.Len(t, stored.Reservations, 2)
	for _, id := range []int64{1, 2} {
		item := stored.FindItem(id)
		require.NotNil(t, item)
		assert.False(t, item.Available, "item %d must stay reserved", id)
	}
	checkHolderInvariant(t, stored)

	// The matching pair still cancels.
	doc, token = loadDoc(t, st)
	require.NoError(t, eng.Cancel(ctx, doc, token, 2, "Maria Souza", resB.ReservationID, false))
}

func TestCancelUnknownReservation(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"))
	doc, token := loadDoc(t, st)
	err := eng.Cancel(context.Background(), doc, token, 1, "Maria Souza", "", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAvailableOrderingAndOwnHold(t *testing.T) {
	items := []model.Item{
		bookItem(1, "Atlas"),
		bookItem(2, "Algebra"),
		{ID: 3, Title: "Chess Set", Category: model.CategoryGame, Grade: "3", ClassName: "Morning", Available: true},
		{ID: 4, Title: "Far Away", Category: model.CategoryBook, Grade: "5", ClassName: "Morning", Available: true},
	}
	eng, st := newFixture(t, items...)
	ctx := context.Background()

	doc, token := loadDoc(t, st)
	_, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	doc, _ = loadDoc(t, st)

	// The family sees its own held item after the available ones; other
	// grades are filtered out.
	got := eng.ListAvailable(doc, "3", "Morning", nil, "Pedro Souza")
	require.Len(t, got, 3)
	assert.EqualValues(t, 2, got[0].ID)
	assert.EqualValues(t, 3, got[1].ID)
	assert.EqualValues(t, 1, got[2].ID)
	assert.False(t, got[2].Available)

	// Another family does not see the held item at all.
	other := eng.ListAvailable(doc, "3", "Morning", nil, "Bia Lima")
	require.Len(t, other, 2)

	// Category filter.
	games := eng.ListAvailable(doc, "3", "Morning", []model.Category{model.CategoryGame}, "Pedro Souza")
	require.Len(t, games, 1)
	assert.EqualValues(t, 3, games[0].ID)
}

func TestReservationIDsAreUniqueWithinDocument(t *testing.T) {
	eng, st := newFixture(t, bookItem(1, "Atlas"), bookItem(2, "Algebra"))
	ctx := context.Background()

	// Freeze the clock so both reservations land in the same second.
	frozen := time.Now()
	eng.now = func() time.Time { return frozen }

	doc, token := loadDoc(t, st)
	first, err := eng.Reserve(ctx, doc, token, 1, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	doc, token = loadDoc(t, st)
	second, err := eng.Reserve(ctx, doc, token, 2, "Maria Souza", "Pedro Souza")
	require.NoError(t, err)

	assert.NotEqual(t, first.ReservationID, second.ReservationID)
}
