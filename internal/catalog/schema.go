package catalog

// FieldType classifies an editable field for draft coercion.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldBool
	FieldTextList
)

// Schema maps editable field names to their types for one kind.
type Schema map[string]FieldType

var schemas = map[Kind]Schema{
	KindJob: {
		"title":        FieldText,
		"company":      FieldText,
		"job_location": FieldText,
		"salary":       FieldNumber,
		"description":  FieldText,
		"phone":        FieldText,
		"media_urls":   FieldTextList,
	},
	KindCondo: {
		"name":        FieldText,
		"location":    FieldText,
		"rent_fee":    FieldNumber,
		"bedrooms":    FieldNumber,
		"has_pool":    FieldBool,
		"has_gym":     FieldBool,
		"has_parking": FieldBool,
		"phone":       FieldText,
		"media_urls":  FieldTextList,
	},
	KindHotel: {
		"name":            FieldText,
		"location":        FieldText,
		"price_per_night": FieldNumber,
		"rating":          FieldNumber,
		"has_wifi":        FieldBool,
		"has_breakfast":   FieldBool,
		"phone":           FieldText,
		"media_urls":      FieldTextList,
	},
	KindCourse: {
		"title":          FieldText,
		"school":         FieldText,
		"location":       FieldText,
		"fee":            FieldNumber,
		"duration_weeks": FieldNumber,
		"description":    FieldText,
		"media_urls":     FieldTextList,
	},
	KindRestaurant: {
		"name":        FieldText,
		"location":    FieldText,
		"cuisine":     FieldText,
		"rating":      FieldNumber,
		"price_range": FieldText,
		"phone":       FieldText,
		"media_urls":  FieldTextList,
	},
	KindTravelPost: {
		"title":       FieldText,
		"destination": FieldText,
		"description": FieldText,
		"media_urls":  FieldTextList,
	},
	KindDocPost: {
		"text":      FieldText,
		"media_url": FieldText,
	},
	KindGeneral: {
		"text":       FieldText,
		"media_urls": FieldTextList,
	},
}

// SchemaFor returns the editable-field schema for a kind.
func SchemaFor(kind Kind) Schema {
	return schemas[kind]
}
