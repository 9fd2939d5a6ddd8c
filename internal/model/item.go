package model

import "strings"

// Category classifies a reservable item.  The school lends three kinds of
// pedagogical material and the quota rules are applied per category, so the
// value is part of both the item and the reservation record.
//
// Values:
//  CategoryBook – printed books, the original and most common kind.
//  CategoryGame – board games and card games.
//  CategoryToy  – educational toys.
type Category string

const (
	CategoryBook Category = "Book" // items.category = "Book"
	CategoryGame Category = "Game" // items.category = "Game"
	CategoryToy  Category = "Toy"  // items.category = "Toy"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryBook, CategoryGame, CategoryToy}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	return c == CategoryBook || c == CategoryGame || c == CategoryToy
}

// ParseCategory converts a user supplied string into a Category.  Matching is
// case-insensitive and surrounding whitespace is ignored.  The boolean result
// is false when the input does not name a known category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book":
		return CategoryBook, true
	case "game":
		return CategoryGame, true
	case "toy":
		return CategoryToy, true
	}
	return "", false
}

// Item describes one reservable physical unit assigned to a grade and class.
// An item is either available, or reserved by exactly one family; the two
// holder fields are set and cleared together so that Available is false if
// and only if both holders are present.
//
// Fields:
//  ID                 – unique identifier, stable once assigned.
//  Title              – display title of the item.
//  Category           – Book, Game or Toy.
//  Grade              – grade the item belongs to.
//  ClassName          – class the item belongs to.
//  Available          – whether the item can currently be reserved.
//  ReservedByGuardian – guardian holding the item, nil when available.
//  ReservedByStudent  – student holding the item, nil when available.
type Item struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	Category           Category `json:"category"`
	Grade              string   `json:"grade"`
	ClassName          string   `json:"className"`
	Available          bool     `json:"available"`
	ReservedByGuardian *string  `json:"reservedByGuardian,omitempty"`
	ReservedByStudent  *string  `json:"reservedByStudent,omitempty"`
}

// HeldBy reports whether the item is currently reserved for the given
// student.  Comparison is case-insensitive and ignores surrounding
// whitespace so that families are not locked out by typing differences.
func (i Item) HeldBy(student string) bool {
	if i.Available || i.ReservedByStudent == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*i.ReservedByStudent), strings.TrimSpace(student))
}

// SetHolder flips the item into the reserved state for the given guardian
// and student.  Both holder fields move together with the availability flag.
func (i *Item) SetHolder(guardian, student string) {
	i.Available = false
	i.ReservedByGuardian = &guardian
	i.ReservedByStudent = &student
}

// ClearHolder flips the item back to the available state and removes both
// holder fields.
func (i *Item) ClearHolder() {
	i.Available = true
	i.ReservedByGuardian = nil
	i.ReservedByStudent = nil
}
