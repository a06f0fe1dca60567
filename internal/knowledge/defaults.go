package knowledge

// Document is a business knowledge base: topic key to value. Values follow
// JSON shapes (map[string]any, []any, string, float64) so documents loaded
// from persistence and built-in defaults merge identically.
type Document = map[string]any

// notAvailable holds the per-topic answer returned when a document has no
// entry for a queried topic.
var notAvailable = map[string]any{
	"menu":       map[string]any{},
	"hours":      "Hours not available",
	"location":   "Location not available",
	"contact":    "Contact not available",
	"properties": []any{},
	"agents":     []any{},
}

// NotAvailableText is the catch-all answer for topics outside the closed set.
const NotAvailableText = "I don't have information about that."

func defaultRestaurantDocument() Document {
	return Document{
		"menu": map[string]any{
			"appetizers": []any{
				map[string]any{"name": "Bruschetta", "price": 8.99, "description": "Toasted bread with tomatoes, garlic, and basil"},
				map[string]any{"name": "Calamari", "price": 12.99, "description": "Fried squid rings with marinara sauce"},
				map[string]any{"name": "Wings", "price": 10.99, "description": "Buffalo wings with blue cheese dressing"},
			},
			"main_courses": []any{
				map[string]any{"name": "Pasta Carbonara", "price": 16.99, "description": "Spaghetti with pancetta, egg, and parmesan"},
				map[string]any{"name": "Grilled Salmon", "price": 22.99, "description": "Fresh salmon with lemon butter sauce"},
				map[string]any{"name": "Beef Tenderloin", "price": 29.99, "description": "8oz tenderloin with mushroom sauce"},
			},
			"desserts": []any{
				map[string]any{"name": "Tiramisu", "price": 7.99, "description": "Classic Italian dessert with coffee and mascarpone"},
				map[string]any{"name": "Chocolate Cake", "price": 6.99, "description": "Rich chocolate cake with ganache"},
				map[string]any{"name": "Ice Cream", "price": 5.99, "description": "Vanilla, chocolate, or strawberry"},
			},
		},
		"hours":    "Monday-Sunday: 11am-10pm",
		"location": "123 Main St, Anytown, USA",
		"contact":  "555-123-4567",
	}
}

func defaultRealEstateDocument() Document {
	return Document{
		"properties": []any{
			map[string]any{
				"id": "1", "type": "House", "address": "123 Oak St, Anytown, USA",
				"price": 350000, "bedrooms": 3, "bathrooms": 2, "square_feet": 2000,
				"description": "Beautiful family home with large backyard",
			},
			map[string]any{
				"id": "2", "type": "Apartment", "address": "456 Pine Ave, Anytown, USA",
				"price": 250000, "bedrooms": 2, "bathrooms": 1, "square_feet": 1200,
				"description": "Modern apartment in downtown area",
			},
			map[string]any{
				"id": "3", "type": "Condo", "address": "789 Maple Dr, Anytown, USA",
				"price": 300000, "bedrooms": 2, "bathrooms": 2, "square_feet": 1500,
				"description": "Luxury condo with city views",
			},
		},
		"agents": []any{
			map[string]any{"name": "John Smith", "phone": "555-123-4567", "email": "john@example.com"},
			map[string]any{"name": "Jane Doe", "phone": "555-987-6543", "email": "jane@example.com"},
		},
		"office_hours": "Monday-Friday: 9am-5pm, Saturday: 10am-2pm",
		"location":     "789 Real Estate Ave, Anytown, USA",
		"contact":      "555-555-5555",
	}
}

// DefaultDocument returns the built-in knowledge base for a business type.
// Unknown business types fall back to the restaurant document, matching
// how deployments have always behaved with a misconfigured BUSINESS_TYPE.
func DefaultDocument(businessType string) Document {
	switch businessType {
	case "real_estate":
		return defaultRealEstateDocument()
	default:
		return defaultRestaurantDocument()
	}
}
