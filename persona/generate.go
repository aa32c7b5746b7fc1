package persona

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// MaxSeed bounds the seed space. Seeds are always in [1, MaxSeed].
const MaxSeed = 1<<31 - 1

// NewSeed picks a random seed in [1, MaxSeed].
func NewSeed() int64 {
	return rand.Int64N(MaxSeed) + 1
}

// Kind tags what a generated value holds.
type Kind int

const (
	KindWord Kind = iota
	KindName
	KindLocation
	KindDate
	KindInt
	KindMoney
)

// NameParts is a generated person name.
type NameParts struct {
	First string
	Last  string
}

// Full joins first and last name.
func (n NameParts) Full() string {
	return n.First + " " + n.Last
}

// LocationParts is a generated place. The continent is drawn separately
// from the city and country, so the combination is usually nonsense. That
// is intentional: impossible geography is easy to search for later.
type LocationParts struct {
	City      string
	Country   string
	Continent string
	Address   string
}

func (l LocationParts) String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", l.Address, l.City, l.Country, l.Continent)
}

// Value is one generated field of a persona row.
type Value struct {
	Kind  Kind
	Text  string
	Name  NameParts
	Loc   LocationParts
	Date  time.Time
	Int   int
	Money float64
}

// String renders the value's natural form, used when the placeholder spec
// asks for nothing more specific.
func (v Value) String() string {
	switch v.Kind {
	case KindName:
		return v.Name.Full()
	case KindLocation:
		return v.Loc.String()
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindMoney:
		return fmt.Sprintf("%.2f", v.Money)
	default:
		return v.Text
	}
}

var continents = []string{
	"Europe",
	"Asia",
	"Africa",
	"North America",
	"South America",
	"Australia",
	"Antarctica",
}

// The date window is fixed so a seed renders the same row on any day the
// page is served.
var (
	dateMin = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	dateMax = time.Date(2038, time.January, 19, 0, 0, 0, 0, time.UTC)
)

// Generate expands a persona type into its row of values. The draw order
// is the field order, so (type, seed) fully determines the row.
func Generate(t Type, seed int64) []Value {
	f := gofakeit.New(uint64(seed))
	row := make([]Value, 0, len(t.Fields))
	for _, field := range t.Fields {
		row = append(row, valueFor(f, strings.ToLower(field)))
	}
	return row
}

// valueFor maps a field name onto a generator by keyword. First match
// wins, so "company name" is a company and "person name" is a person.
func valueFor(f *gofakeit.Faker, field string) Value {
	switch {
	case strings.Contains(field, "name") &&
		!strings.Contains(field, "company") &&
		!strings.Contains(field, "product"):
		return Value{Kind: KindName, Name: NameParts{First: f.FirstName(), Last: f.LastName()}}

	case strings.Contains(field, "company") || strings.Contains(field, "brand"):
		return Value{Kind: KindWord, Text: f.Company()}

	case strings.Contains(field, "product"):
		return Value{Kind: KindWord, Text: f.Word()}

	case strings.Contains(field, "year") || strings.Contains(field, "date"):
		return Value{Kind: KindDate, Date: f.DateRange(dateMin, dateMax)}

	case strings.Contains(field, "location") || strings.Contains(field, "country") ||
		strings.Contains(field, "city") || strings.Contains(field, "continent"):
		return Value{Kind: KindLocation, Loc: LocationParts{
			City:      f.City(),
			Country:   f.Country(),
			Continent: f.RandomString(continents),
			Address:   f.Address().Address,
		}}

	case strings.Contains(field, "email"):
		return Value{Kind: KindWord, Text: f.Email()}

	case strings.Contains(field, "phone"):
		return Value{Kind: KindWord, Text: f.PhoneFormatted()}

	case strings.Contains(field, "number") || strings.Contains(field, "count"):
		return Value{Kind: KindInt, Int: f.Number(1, 10000)}

	case strings.Contains(field, "dollars") || strings.Contains(field, "price"):
		return Value{Kind: KindMoney, Money: f.Price(1, 99999)}

	case strings.Contains(field, "song") || strings.Contains(field, "concert") ||
		strings.Contains(field, "collab"):
		return Value{Kind: KindWord, Text: f.Word()}

	case strings.Contains(field, "nickname"):
		return Value{Kind: KindWord, Text: f.Username()}

	case strings.Contains(field, "science field"):
		return Value{Kind: KindWord, Text: f.JobTitle()}

	case strings.Contains(field, "prize"):
		return Value{Kind: KindWord, Text: f.Word() + " Prize"}

	case strings.Contains(field, "journal"):
		return Value{Kind: KindWord, Text: capitalize(f.Word()) + " Journal"}

	case strings.Contains(field, "university"):
		return Value{Kind: KindWord, Text: f.Company() + " University"}

	case strings.Contains(field, "faction"):
		return Value{Kind: KindWord, Text: capitalize(f.Word()) + " Faction"}

	default:
		return Value{Kind: KindWord, Text: f.Word()}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
