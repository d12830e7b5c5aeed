// ABOUTME: Exercise reference record from the read-only catalog.
// ABOUTME: Optional text fields are pointers; accessors fall back to "".
package models

// Exercise is a read-only catalog entry.
type Exercise struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	PrimaryMuscle *string `json:"primary_muscle,omitempty" yaml:"primary_muscle,omitempty"`
	Equipment     *string `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Category      *string `json:"category,omitempty" yaml:"category,omitempty"`
	MediaURL      *string `json:"media_url,omitempty" yaml:"media_url,omitempty"`
	Description   *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Muscle returns the primary muscle text or "".
func (e Exercise) Muscle() string { return deref(e.PrimaryMuscle) }

// EquipmentText returns the equipment text or "".
func (e Exercise) EquipmentText() string { return deref(e.Equipment) }

// CategoryText returns the category text or "".
func (e Exercise) CategoryText() string { return deref(e.Category) }

// Media returns the media URL or "".
func (e Exercise) Media() string { return deref(e.MediaURL) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns nil for "" and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
