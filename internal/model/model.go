// Package model holds the shared data types of the phone-report pipeline.
package model

import "github.com/rotisserie/eris"

// FeatureType identifies the kind of geographic feature.
type FeatureType string

const (
	FeatureNode     FeatureType = "node"
	FeatureWay      FeatureType = "way"
	FeatureRelation FeatureType = "relation"
)

// Feature is one geographic object as supplied by the feature source.
// Ways and relations carry their center point in Lat/Lon.
type Feature struct {
	Type    FeatureType       `json:"type"`
	ID      int64             `json:"id"`
	Version int               `json:"version,omitempty"`
	Lat     float64           `json:"lat,omitempty"`
	Lon     float64           `json:"lon,omitempty"`
	Area    bool              `json:"area,omitempty"` // closed-ring hint for ways
	Tags    map[string]string `json:"tags"`
}

// FeatureRecord is the persisted verdict for one feature that carries at
// least one invalid phone-like field. It is written once by the stream
// processor and never mutated afterwards.
//
// SuggestedFixes values are pointers: a nil entry means "delete this field".
// InvalidNumbers and SuggestedFixes always share the same key set.
type FeatureRecord struct {
	Type    FeatureType `json:"type"`
	ID      int64       `json:"id"`
	Lat     float64     `json:"lat,omitempty"`
	Lon     float64     `json:"lon,omitempty"`
	Area    bool        `json:"area,omitempty"`
	Website string      `json:"website,omitempty"`

	InvalidNumbers      map[string]string   `json:"invalid_numbers"`
	SuggestedFixes      map[string]*string  `json:"suggested_fixes"`
	DuplicateNumbers    map[string]string   `json:"duplicate_numbers,omitempty"`
	MismatchTypeNumbers map[string][]string `json:"mismatch_type_numbers,omitempty"`

	HasTypeMismatch bool `json:"has_type_mismatch"`
	AutoFixable     bool `json:"auto_fixable"`
}

// Validate checks the record's structural invariant: InvalidNumbers and
// SuggestedFixes must cover exactly the same fields.
func (r *FeatureRecord) Validate() error {
	if len(r.InvalidNumbers) != len(r.SuggestedFixes) {
		return eris.Errorf("record %s/%d: %d invalid numbers but %d suggested fixes",
			r.Type, r.ID, len(r.InvalidNumbers), len(r.SuggestedFixes))
	}
	for field := range r.InvalidNumbers {
		if _, ok := r.SuggestedFixes[field]; !ok {
			return eris.Errorf("record %s/%d: field %q has no suggested fix entry", r.Type, r.ID, field)
		}
	}
	return nil
}

// RunStats accumulates counters across one validation pass.
type RunStats struct {
	TotalNumbers     int `json:"total_numbers"`
	InvalidCount     int `json:"invalid_count"`
	AutoFixableCount int `json:"auto_fixable_count"`
	SafeEditCount    int `json:"safe_edit_count"`
}

// BBox is the bounding box of the invalid features seen during one run.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// SafeEdit is the trimmed form of a FeatureRecord that survived the safe-edit
// classifier: identity plus the original values and their fixes, nothing else.
type SafeEdit struct {
	Type           FeatureType        `json:"type"`
	ID             int64              `json:"id"`
	InvalidNumbers map[string]string  `json:"invalid_numbers"`
	SuggestedFixes map[string]*string `json:"suggested_fixes"`
}

// SafeEditBundle packages every safe edit of one subdivision for upload.
type SafeEditBundle struct {
	CountryName     string     `json:"country_name"`
	SubdivisionName string     `json:"subdivision_name"`
	Edits           []SafeEdit `json:"edits"`

	TotalOriginalItems  int `json:"total_original_items"`
	TotalSuggestedEdits int `json:"total_suggested_edits"`
	TotalSafeEdits      int `json:"total_safe_edits"`
}
