// Package catalog provides read-only access to the reported-item catalog.
// The catalog is owned by an external service; the matching engine only
// queries it and never mutates item records.
package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies a reported item.
type Category string

const (
	CategoryElectronics   Category = "ELECTRONICS"
	CategoryBags          Category = "BAGS"
	CategoryJewelry       Category = "JEWELRY"
	CategoryClothing      Category = "CLOTHING"
	CategoryDocuments     Category = "DOCUMENTS"
	CategoryKeys          Category = "KEYS"
	CategoryAccessories   Category = "ACCESSORIES"
	CategoryMiscellaneous Category = "MISCELLANEOUS"
	CategoryOther         Category = "OTHER"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryElectronics,
	CategoryBags,
	CategoryJewelry,
	CategoryClothing,
	CategoryDocuments,
	CategoryKeys,
	CategoryAccessories,
	CategoryMiscellaneous,
	CategoryOther,
}

// ParseCategory maps a string to a known Category, case-insensitively.
// Returns false when the value is not a known category.
func ParseCategory(s string) (Category, bool) {
	upper := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range Categories {
		if c == upper {
			return c, true
		}
	}
	return "", false
}

// ItemStatus represents the lifecycle state of a reported item.
type ItemStatus string

const (
	StatusLost     ItemStatus = "LOST"
	StatusFound    ItemStatus = "FOUND"
	StatusClaimed  ItemStatus = "CLAIMED"
	StatusReturned ItemStatus = "RETURNED"
)

// Item is a reported item record. Owned by the external catalog;
// never mutated by the matching engine.
type Item struct {
	ID          uuid.UUID
	Name        string
	Description string
	Category    Category
	Location    string
	ImageURL    string
	Features    []float64 // stored feature vector, may be nil
	Status      ItemStatus
	Latitude    *float64
	Longitude   *float64
	ReportedAt  time.Time
	CreatedAt   time.Time
}

// HasFeatures reports whether the item carries a stored feature vector.
func (i *Item) HasFeatures() bool {
	return len(i.Features) > 0
}

// Filter narrows catalog queries. Zero values mean "no constraint".
type Filter struct {
	Category Category
	Location string // substring match
	Text     string // raw free-text match against name/description
	Status   ItemStatus
	From     *time.Time
	To       *time.Time
	Limit    int
}
