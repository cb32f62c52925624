// Package models defines data structures shared by the harvester packages.
package models

// Record is one harvested comic. Optional fields are nil when extraction
// could not produce them and serialize as null.
type Record struct {
	ID           *int    `json:"id"`
	Title        string  `json:"title"`
	ImageTitle   *string `json:"image_title"`
	URL          *string `json:"url"`
	ImageURL     *string `json:"image_url"`
	ExplainedURL string  `json:"explained_url"`
	Transcript   *string `json:"transcript"`
	Explanation  *string `json:"explanation"`
}

// Valid reports whether the record carries an identifier. Records without
// one are dropped before output.
func (r *Record) Valid() bool {
	return r.ID != nil
}

// IDValue returns the identifier or 0 when unset.
func (r *Record) IDValue() int {
	if r.ID == nil {
		return 0
	}

	return *r.ID
}

// Missing lists the JSON names of optional fields that are unset.
func (r *Record) Missing() []string {
	var missing []string

	optional := []struct {
		name string
		set  bool
	}{
		{"id", r.ID != nil},
		{"image_title", r.ImageTitle != nil},
		{"url", r.URL != nil},
		{"image_url", r.ImageURL != nil},
		{"transcript", r.Transcript != nil},
		{"explanation", r.Explanation != nil},
	}

	for _, field := range optional {
		if !field.set {
			missing = append(missing, field.name)
		}
	}

	return missing
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
