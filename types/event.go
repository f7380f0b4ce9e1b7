package types

import "time"

// Event represents a published event that users can register for.
type Event struct {
	// ID is the unique identifier of the event.
	ID int `json:"id" db:"id"`

	// Title is the event's display title.
	Title string `json:"title" db:"title"`

	// Description is an optional free-form description.
	Description string `json:"description" db:"description"`

	// Address is the venue address.
	Address string `json:"address" db:"address"`

	// Date is when the event takes place.
	Date time.Time `json:"date" db:"date"`

	// ImageKey is the object-storage key of the event's image, empty
	// when no image has been uploaded.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// UserID is the owner of the event. Nil for events created before
	// ownership tracking existed; such events can never pass the
	// ownership check.
	UserID *int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
