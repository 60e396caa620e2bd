package pkg

import (
	"strings"
	"time"
)

// Dialogue Core Types shared by the NLU collaborators, memory and the dialogue manager

// Intent is one label from the closed set the assistant understands
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentFarewell    Intent = "farewell"
	IntentThanks      Intent = "thanks"
	IntentWeather     Intent = "weather"
	IntentProductInfo Intent = "product_info"
	IntentScheduling  Intent = "scheduling"
	IntentYes         Intent = "yes"
	IntentNo          Intent = "no"
	IntentOrderStatus Intent = "order_status"
	IntentHelp        Intent = "help"
	IntentPricing     Intent = "pricing"
	IntentGetUserInfo Intent = "get_user_info"
	IntentNews        Intent = "news"
	IntentUnknown     Intent = "unknown"
)

// Intents lists every label, unknown last
var Intents = []Intent{
	IntentGreeting, IntentFarewell, IntentThanks, IntentWeather, IntentProductInfo,
	IntentScheduling, IntentYes, IntentNo, IntentOrderStatus, IntentHelp,
	IntentPricing, IntentGetUserInfo, IntentNews, IntentUnknown,
}

// ParseIntent maps a raw label to an Intent; anything outside the closed set is unknown
func ParseIntent(label string) Intent {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, intent := range Intents {
		if string(intent) == label {
			return intent
		}
	}
	return IntentUnknown
}

// Valid reports whether the intent belongs to the closed set
func (i Intent) Valid() bool {
	return ParseIntent(string(i)) == i
}

// EntityKey names one slot of an EntityMap
type EntityKey string

const (
	EntityLocation    EntityKey = "location"
	EntityDate        EntityKey = "date"
	EntityTime        EntityKey = "time"
	EntityPerson      EntityKey = "person"
	EntityProduct     EntityKey = "product"
	EntityOrderNumber EntityKey = "order_number"
	EntityNumber      EntityKey = "number"
)

// EntityKeys is the fixed key set of every EntityMap
var EntityKeys = []EntityKey{
	EntityLocation, EntityDate, EntityTime, EntityPerson,
	EntityProduct, EntityOrderNumber, EntityNumber,
}

// EntityMap holds one optional value per entity key. All keys are always present;
// the empty string is the explicit "no value".
type EntityMap map[EntityKey]string

// NewEntityMap returns a map with every key present and absent
func NewEntityMap() EntityMap {
	m := make(EntityMap, len(EntityKeys))
	for _, key := range EntityKeys {
		m[key] = ""
	}
	return m
}

// Get returns the value for key and whether it is present
func (m EntityMap) Get(key EntityKey) (string, bool) {
	v := m[key]
	return v, v != ""
}

// With returns a copy of m with key set to value
func (m EntityMap) With(key EntityKey, value string) EntityMap {
	out := NewEntityMap()
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

// Present returns the keys that carry a value, in EntityKeys order
func (m EntityMap) Present() []EntityKey {
	var keys []EntityKey
	for _, key := range EntityKeys {
		if m[key] != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Turn is one exchange in short-term history
type Turn struct {
	Input     string    `json:"input"`
	Intent    Intent    `json:"intent"`
	Entities  EntityMap `json:"entities"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Appointment is a date+time pair; two appointments conflict when both fields match exactly
type Appointment struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// WeatherReading is the result of a weather lookup
type WeatherReading struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Conditions  string  `json:"conditions"`
	Simulated   bool    `json:"simulated"`
}

// Order represents a tracked customer order
type Order struct {
	Number       string `json:"number"`
	Status       string `json:"status"`
	DeliveryDate string `json:"delivery_date"`
}

// Product represents a catalogue entry
type Product struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}
