// Package search orchestrates text and image searches over the item
// catalog: validation, candidate scoring, ranking, and caching.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/matching"
)

// Field length limits for text queries.
const (
	maxDescriptionLen = 500
	maxNameLen        = 200
	maxLocationLen    = 200
	maxAttributeLen   = 50
	maxDateRange      = 5 * 365 * 24 * time.Hour
)

// knownSizes are the accepted size descriptors, including synonyms.
var knownSizes = map[string]bool{
	"small": true, "mini": true, "tiny": true, "compact": true, "little": true,
	"medium": true, "med": true, "regular": true, "standard": true,
	"large": true, "big": true, "huge": true, "oversized": true, "giant": true,
}

// TextQuery is a text search request.
type TextQuery struct {
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Location    string     `json:"location,omitempty"`
	Color       string     `json:"color,omitempty"`
	Material    string     `json:"material,omitempty"`
	Size        string     `json:"size,omitempty"`
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}

// ImageQuery is an image similarity search request. Exactly one of
// Features, ImageURL, or ImageData should be set; Features wins when the
// caller already has a vector.
type ImageQuery struct {
	Features  []float64  `json:"features,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	ImageData string     `json:"image_data,omitempty"`
	Category  string     `json:"category,omitempty"`
	Location  string     `json:"location,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

// ValidationErrors collects every violation in a request so the caller
// can fix them all at once.
type ValidationErrors struct {
	Violations []string
}

func (e *ValidationErrors) Error() string {
	return "invalid query: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationErrors) add(format string, args ...interface{}) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

func (e *ValidationErrors) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// Validate checks the query and returns a ValidationErrors listing every
// violation, or nil.
func (q TextQuery) Validate() error {
	var errs ValidationErrors

	if q.Name == "" && q.Description == "" && q.Category == "" && q.Location == "" &&
		q.Color == "" && q.Material == "" && q.Size == "" {
		errs.add("at least one search field is required")
	}

	if len(q.Name) > maxNameLen {
		errs.add("name exceeds %d characters", maxNameLen)
	}
	if len(q.Description) > maxDescriptionLen {
		errs.add("description exceeds %d characters", maxDescriptionLen)
	}
	if len(q.Location) > maxLocationLen {
		errs.add("location exceeds %d characters", maxLocationLen)
	}
	if len(q.Color) > maxAttributeLen {
		errs.add("color exceeds %d characters", maxAttributeLen)
	}
	if len(q.Material) > maxAttributeLen {
		errs.add("material exceeds %d characters", maxAttributeLen)
	}

	if q.Category != "" {
		if _, ok := catalog.ParseCategory(q.Category); !ok {
			errs.add("unknown category %q", q.Category)
		}
	}
	if q.Size != "" && !knownSizes[strings.ToLower(strings.TrimSpace(q.Size))] {
		errs.add("unknown size %q", q.Size)
	}

	validateDates(&errs, q.DateFrom, q.DateTo)

	return errs.orNil()
}

// Validate checks the image query.
func (q ImageQuery) Validate() error {
	var errs ValidationErrors

	if len(q.Features) == 0 && q.ImageURL == "" && q.ImageData == "" {
		errs.add("one of features, image_url, or image_data is required")
	}
	if q.Category != "" {
		if _, ok := catalog.ParseCategory(q.Category); !ok {
			errs.add("unknown category %q", q.Category)
		}
	}
	if len(q.Location) > maxLocationLen {
		errs.add("location exceeds %d characters", maxLocationLen)
	}

	validateDates(&errs, q.DateFrom, q.DateTo)

	return errs.orNil()
}

func validateDates(errs *ValidationErrors, from, to *time.Time) {
	if from != nil && to != nil {
		if from.After(*to) {
			errs.add("date_from is after date_to")
		} else if to.Sub(*from) > maxDateRange {
			errs.add("date range exceeds 5 years")
		}
	}
}

// scorerQuery converts the request into the matcher's field set.
func (q TextQuery) scorerQuery() matching.TextQuery {
	return matching.TextQuery{
		Name:        q.Name,
		Description: q.Description,
		Category:    q.Category,
		Location:    q.Location,
		Color:       q.Color,
		Material:    q.Material,
		Size:        q.Size,
	}
}

// filter converts the request into a catalog filter. Category narrows the
// fetch; the free-text fields are scored, not filtered.
func (q TextQuery) filter(pageSize int) catalog.Filter {
	f := catalog.Filter{
		From:  q.DateFrom,
		To:    q.DateTo,
		Limit: pageSize,
	}
	if cat, ok := catalog.ParseCategory(q.Category); ok {
		f.Category = cat
	}
	return f
}

func (q ImageQuery) filter(pageSize int) catalog.Filter {
	f := catalog.Filter{
		Location: q.Location,
		From:     q.DateFrom,
		To:       q.DateTo,
		Limit:    pageSize,
	}
	if cat, ok := catalog.ParseCategory(q.Category); ok {
		f.Category = cat
	}
	return f
}
