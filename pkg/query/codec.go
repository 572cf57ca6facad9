// Package query maps search criteria to and from the address bar query string.
package query

import (
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/matst80/jobboard/pkg/types"
)

var decoder = schema.NewDecoder()
var encoder = schema.NewEncoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// Page is kept as text so a garbage value only loses the page, not the whole query.
type rawCriteria struct {
	Page     string `schema:"page"`
	Title    string `schema:"title"`
	Location string `schema:"location"`
}

type encodedCriteria struct {
	Page     int    `schema:"page,omitempty"`
	Title    string `schema:"title,omitempty"`
	Location string `schema:"location,omitempty"`
}

// Navigator replaces the current location with a new query string.
type Navigator interface {
	Replace(rawQuery string)
}

// Parse never fails. Malformed or missing values fall back to their defaults.
func Parse(rawQuery string) types.SearchCriteria {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		// ParseQuery keeps every pair it could read
		log.Printf("query: recovered from malformed query %q: %v", rawQuery, err)
	}
	return FromValues(values)
}

func FromValues(values url.Values) types.SearchCriteria {
	raw := rawCriteria{}
	if err := decoder.Decode(&raw, values); err != nil {
		log.Printf("query: decode failed, using defaults: %v", err)
		return types.DefaultCriteria()
	}
	return types.SearchCriteria{
		Page:     parsePage(raw.Page),
		Title:    raw.Title,
		Location: raw.Location,
	}
}

func parsePage(value string) int {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Serialize omits every key that holds its default value.
func Serialize(c types.SearchCriteria) string {
	return ToValues(c).Encode()
}

func ToValues(c types.SearchCriteria) url.Values {
	enc := encodedCriteria{
		Title:    c.Title,
		Location: c.Location,
	}
	if c.Page > 1 {
		enc.Page = c.Page
	}
	values := url.Values{}
	if err := encoder.Encode(enc, values); err != nil {
		log.Printf("query: encode failed: %v", err)
	}
	return values
}

func Navigate(nav Navigator, c types.SearchCriteria) {
	nav.Replace(Serialize(c))
}
