package types

import "time"

// Annotation is the user's own data about a saved restaurant.
type Annotation struct {
	Visited        bool     `json:"visited" yaml:"visited"`
	PersonalRating *int     `json:"personal_rating,omitempty" yaml:"personal_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes          string   `json:"notes,omitempty" yaml:"notes,omitempty" validate:"max=1000"`
	Tags           []string `json:"tags" yaml:"tags" validate:"max=10,dive,required,max=50"`
}

// AnnotationPatch updates an Annotation. Nil fields are left unchanged.
type AnnotationPatch struct {
	Visited        *bool     `json:"visited,omitempty"`
	PersonalRating *int      `json:"personal_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes          *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Tags           *[]string `json:"tags,omitempty" validate:"omitempty,max=10,dive,required,max=50"`
}

// Apply returns a with the non-nil fields of p applied.
func (p AnnotationPatch) Apply(a Annotation) Annotation {
	if p.Visited != nil {
		a.Visited = *p.Visited
	}
	if p.PersonalRating != nil {
		a.PersonalRating = p.PersonalRating
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.Tags != nil {
		a.Tags = *p.Tags
	}
	return a
}

// SavedRestaurant is a canonical record kept on a user's list.
type SavedRestaurant struct {
	ID           string          `json:"id" yaml:"id"`
	UserID       string          `json:"user_id" yaml:"user_id"`
	RestaurantID string          `json:"restaurant_id" yaml:"restaurant_id"`
	Restaurant   CanonicalRecord `json:"restaurant_data" yaml:"restaurant_data"`
	Annotation   `yaml:",inline"`
	AddedAt      time.Time `json:"added_at" yaml:"added_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}
