package model

// Status is the review state of a bill. It is set by the remote store.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Category is the expense type of a bill.
type Category string

const (
	CategoryTransports   Category = "Transports"
	CategoryRestaurants  Category = "Restaurants et bars"
	CategoryHotel        Category = "Hôtel et logement"
	CategoryOnline       Category = "Services en ligne"
	CategoryIT           Category = "IT et électronique"
	CategoryEquipment    Category = "Equipement et matériel"
	CategoryOfficeSupply Category = "Fournitures de bureau"
)

// Categories lists the accepted expense types in form order.
var Categories = []Category{
	CategoryTransports,
	CategoryRestaurants,
	CategoryHotel,
	CategoryOnline,
	CategoryIT,
	CategoryEquipment,
	CategoryOfficeSupply,
}

// ParseCategory returns the Category matching name exactly.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// DefaultPct is the VAT percentage applied when the form leaves it blank.
const DefaultPct = 20

// Bill is one expense claim.
type Bill struct {
	ID           string   `json:"id,omitempty"`
	Email        string   `json:"email"`
	Type         Category `json:"type"`
	Name         string   `json:"name"`
	Amount       int      `json:"amount"`
	Date         string   `json:"date"` // YYYY-MM-DD
	VAT          string   `json:"vat"`
	Pct          int      `json:"pct"`
	Commentary   string   `json:"commentary"`
	FileURL      string   `json:"fileUrl"`
	FileName     string   `json:"fileName"`
	Status       Status   `json:"status"`
	CommentAdmin string   `json:"commentAdmin,omitempty"`
}

// HasReceipt reports whether a receipt reference is attached.
func (b Bill) HasReceipt() bool {
	return b.FileURL != "" && b.FileName != ""
}
