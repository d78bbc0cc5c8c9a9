package catalog

import "time"

// Record is implemented by every listing type. Key returns the
// server-assigned identifier, empty for not-yet-persisted drafts.
type Record interface {
	Key() ID
}

// Job is a job posting.
type Job struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	JobLocation string    `json:"job_location"`
	Salary      float64   `json:"salary"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	MediaURLs   []string  `json:"media_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

func (j Job) Key() ID { return j.ID }

// Condo is a rental condo listing.
type Condo struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	RentFee    float64   `json:"rent_fee"`
	Bedrooms   int       `json:"bedrooms"`
	HasPool    bool      `json:"has_pool"`
	HasGym     bool      `json:"has_gym"`
	HasParking bool      `json:"has_parking"`
	Phone      string    `json:"phone"`
	MediaURLs  []string  `json:"media_urls"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Condo) Key() ID { return c.ID }

// Hotel is a hotel listing.
type Hotel struct {
	ID            ID        `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	PricePerNight float64   `json:"price_per_night"`
	Rating        float64   `json:"rating"`
	HasWifi       bool      `json:"has_wifi"`
	HasBreakfast  bool      `json:"has_breakfast"`
	Phone         string    `json:"phone"`
	MediaURLs     []string  `json:"media_urls"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h Hotel) Key() ID { return h.ID }

// Course is a class or training course listing.
type Course struct {
	ID            ID        `json:"id"`
	Title         string    `json:"title"`
	School        string    `json:"school"`
	Location      string    `json:"location"`
	Fee           float64   `json:"fee"`
	DurationWeeks int       `json:"duration_weeks"`
	Description   string    `json:"description"`
	MediaURLs     []string  `json:"media_urls"`
	CreatedAt     time.Time `json:"created_at"`
}

func (c Course) Key() ID { return c.ID }

// Restaurant is a restaurant listing.
type Restaurant struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Cuisine    string    `json:"cuisine"`
	Rating     float64   `json:"rating"`
	PriceRange string    `json:"price_range"`
	Phone      string    `json:"phone"`
	MediaURLs  []string  `json:"media_urls"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r Restaurant) Key() ID { return r.ID }

// TravelPost is a travel story post.
type TravelPost struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination"`
	Description string    `json:"description"`
	MediaURLs   []string  `json:"media_urls"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t TravelPost) Key() ID { return t.ID }

// DocPost is a shared document post: free text plus at most one attachment.
type DocPost struct {
	ID        ID        `json:"id"`
	Text      string    `json:"text"`
	MediaURL  string    `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (d DocPost) Key() ID { return d.ID }

// GeneralPost is a free-form feed post.
type GeneralPost struct {
	ID        ID        `json:"id"`
	Text      string    `json:"text"`
	MediaURLs []string  `json:"media_urls"`
	CreatedAt time.Time `json:"created_at"`
}

func (g GeneralPost) Key() ID { return g.ID }
