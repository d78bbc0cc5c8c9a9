package catalog

import "fmt"

// Kind is the resource category discriminator. It selects which backend
// collection a listing belongs to.
type Kind string

const (
	KindJob        Kind = "jobs"
	KindCondo      Kind = "condos"
	KindHotel      Kind = "hotels"
	KindCourse     Kind = "courses"
	KindRestaurant Kind = "restaurants"
	KindTravelPost Kind = "travel-posts"
	KindDocPost    Kind = "docs"
	KindGeneral    Kind = "general-posts"
)

// Kinds lists every resource kind in a stable order.
var Kinds = []Kind{
	KindJob,
	KindCondo,
	KindHotel,
	KindCourse,
	KindRestaurant,
	KindTravelPost,
	KindDocPost,
	KindGeneral,
}

// ParseKind validates a kind string from the control API or config.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// CollectionPath returns the backend collection endpoint for the kind.
func (k Kind) CollectionPath() string {
	return "/" + string(k)
}

// ItemPath returns the backend item endpoint for one listing.
func (k Kind) ItemPath(id ID) string {
	return "/" + string(k) + "/" + string(id)
}

// HasDetailEndpoint reports whether selecting a listing for details should
// issue a dedicated item fetch instead of reusing the cached entry. Only
// kinds whose detail view carries more fields than the list view do.
func (k Kind) HasDetailEndpoint() bool {
	switch k {
	case KindJob, KindCondo, KindHotel:
		return true
	}
	return false
}
