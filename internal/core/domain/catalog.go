package domain

import "time"

// Service is a bookable maintenance/repair offering.
type Service struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"duration_minutes,omitempty"`
	Active      bool    `json:"active"`
}

// Vehicle is an inventory entry customers can browse or attach to a booking.
type Vehicle struct {
	ID        int64     `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Price     float64   `json:"price,omitempty"`
	ImagePath string    `json:"image_path,omitempty"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Feedback is a customer's rating of a completed request.
type Feedback struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Account is a directory entry (customer or agent) managed by administrators.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
