package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuiltin_CatalogShape(t *testing.T) {
	catalog := Builtin()
	if len(catalog) != 5 {
		t.Fatalf("expected 5 builtin types, got %d", len(catalog))
	}

	wantNames := []string{"Companies", "Artists", "Products", "Politicians", "Researchers"}
	for i, typ := range catalog {
		if typ.Name != wantNames[i] {
			t.Errorf("type[%d].Name = %q, want %q", i, typ.Name, wantNames[i])
		}
		if len(typ.Fields) != 12 {
			t.Errorf("type %s has %d fields, want 12", typ.Name, len(typ.Fields))
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	typ := Builtin()[0]
	row1 := Generate(typ, 12345)
	row2 := Generate(typ, 12345)

	if len(row1) != len(typ.Fields) {
		t.Fatalf("row has %d values for %d fields", len(row1), len(typ.Fields))
	}
	for i := range row1 {
		if row1[i].String() != row2[i].String() {
			t.Errorf("field %q differs across identical seeds: %q vs %q",
				typ.Fields[i], row1[i].String(), row2[i].String())
		}
	}
}

func TestGenerate_SeedChangesRow(t *testing.T) {
	typ := Builtin()[0]
	row1 := Generate(typ, 1)
	row2 := Generate(typ, 2)

	same := true
	for i := range row1 {
		if row1[i].String() != row2[i].String() {
			same = false
			break
		}
	}
	if same {
		t.Error("two different seeds produced identical rows")
	}
}

func TestGenerate_FieldKeywordRouting(t *testing.T) {
	tests := []struct {
		field string
		kind  Kind
	}{
		{"name", KindName},
		{"founder", KindWord},
		{"person name", KindName},
		{"company name", KindWord},
		{"product name", KindWord},
		{"birth date", KindDate},
		{"year", KindDate},
		{"birth location", KindLocation},
		{"main country", KindLocation},
		{"generic email", KindWord},
		{"phone number", KindWord},
		{"employee count", KindInt},
		{"dollars", KindMoney},
		{"price", KindMoney},
		// "number" is checked before "price", so a combined field counts.
		{"price number 1", KindInt},
		{"song 2", KindWord},
		{"science field 1", KindWord},
		// These all contain "name", so the person-name rule wins even
		// though more specific rules exist further down.
		{"nickname", KindName},
		{"prize name", KindName},
		{"journal name 1", KindName},
		{"university name", KindName},
		{"collab name", KindName},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			row := Generate(Type{Name: "T", Fields: []string{tt.field}}, 7)
			if row[0].Kind != tt.kind {
				t.Errorf("field %q generated kind %d, want %d", tt.field, row[0].Kind, tt.kind)
			}
		})
	}
}

func TestGenerate_SuffixedValues(t *testing.T) {
	row := Generate(Type{Name: "T", Fields: []string{"university 1", "prize", "faction", "journal"}}, 9)

	if !strings.HasSuffix(row[0].Text, " University") {
		t.Errorf("university value = %q", row[0].Text)
	}
	if !strings.HasSuffix(row[1].Text, " Prize") {
		t.Errorf("prize value = %q", row[1].Text)
	}
	if !strings.HasSuffix(row[2].Text, " Faction") {
		t.Errorf("faction value = %q", row[2].Text)
	}
	if !strings.HasSuffix(row[3].Text, " Journal") {
		t.Errorf("journal value = %q", row[3].Text)
	}
}

func TestGenerate_EmailLooksLikeEmail(t *testing.T) {
	row := Generate(Type{Name: "T", Fields: []string{"generic email"}}, 3)
	if !strings.Contains(row[0].Text, "@") {
		t.Errorf("email value = %q", row[0].Text)
	}
}

func TestGenerate_NumberInRange(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		row := Generate(Type{Name: "T", Fields: []string{"number"}}, seed)
		if row[0].Int < 1 || row[0].Int > 10000 {
			t.Fatalf("seed %d: number %d out of range", seed, row[0].Int)
		}
	}
}

func TestGenerate_DateInWindow(t *testing.T) {
	row := Generate(Type{Name: "T", Fields: []string{"date"}}, 11)
	d := row[0].Date
	if d.Before(dateMin) || d.After(dateMax) {
		t.Errorf("date %v outside the fixed window", d)
	}
}

func TestNewSeed_InRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		s := NewSeed()
		if s < 1 || s > MaxSeed {
			t.Fatalf("seed %d out of [1, %d]", s, int64(MaxSeed))
		}
	}
}

func TestStringify_NameParts(t *testing.T) {
	v := Value{Kind: KindName, Name: NameParts{First: "Ada", Last: "Lovelace"}}

	tests := []struct {
		spec string
		want string
	}{
		{"name", "Ada Lovelace"},
		{"name (first)", "Ada"},
		{"name (last)", "Lovelace"},
		{"researcher name", "Ada Lovelace"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if got := Stringify(v, tt.spec); got != tt.want {
				t.Errorf("Stringify(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestStringify_LocationParts(t *testing.T) {
	v := Value{Kind: KindLocation, Loc: LocationParts{
		City: "Lyon", Country: "Peru", Continent: "Asia", Address: "12 Elm St",
	}}

	tests := []struct {
		spec string
		want string
	}{
		{"location (city)", "Lyon"},
		{"location (country)", "Peru"},
		{"location (continent)", "Asia"},
		{"location", "12 Elm St"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if got := Stringify(v, tt.spec); got != tt.want {
				t.Errorf("Stringify(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestStringify_NumberMath(t *testing.T) {
	n := Value{Kind: KindInt, Int: 10}
	m := Value{Kind: KindMoney, Money: 19.5}

	tests := []struct {
		name string
		v    Value
		spec string
		want string
	}{
		{"plain", n, "number", "10"},
		{"add", n, "number + 23", "33"},
		{"subtract", n, "number - 4", "6"},
		{"multiply", n, "number * 1.5", "15"},
		{"divide", n, "number / 4", "2.5"},
		{"divide by zero falls back", n, "number / 0", "10"},
		{"money add", m, "price number 1 + 0.5", "20"},
		{"money plain", m, "dollars", "19.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.v, tt.spec); got != tt.want {
				t.Errorf("Stringify(%q) = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestStringify_Dates(t *testing.T) {
	v := Value{Kind: KindDate, Date: time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC)}

	if got := Stringify(v, "date"); got != "3rd of March 2021" {
		t.Errorf("date spec = %q", got)
	}
	if got := Stringify(v, "year"); got != "2021" {
		t.Errorf("year spec = %q", got)
	}
	if got := Stringify(v, "birthday"); got != "2021-03-03" {
		t.Errorf("unrecognized spec should use the natural form, got %q", got)
	}
}

func TestStringify_DateSpecOnNonDate(t *testing.T) {
	v := Value{Kind: KindWord, Text: "whatever"}
	if got := Stringify(v, "date"); got != "whatever" {
		t.Errorf("date spec on a non-date = %q", got)
	}
	if got := Stringify(v, "year"); got != "whatever" {
		t.Errorf("year spec on a non-date = %q", got)
	}
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {22, "22nd"}, {23, "23rd"},
		{30, "30th"}, {31, "31st"},
	}
	for _, tt := range tests {
		if got := ordinal(tt.n); got != tt.want {
			t.Errorf("ordinal(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestValue_String(t *testing.T) {
	d := time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"word", Value{Kind: KindWord, Text: "plum"}, "plum"},
		{"name", Value{Kind: KindName, Name: NameParts{First: "Jo", Last: "An"}}, "Jo An"},
		{"date", Value{Kind: KindDate, Date: d}, "1999-12-31"},
		{"int", Value{Kind: KindInt, Int: 42}, "42"},
		{"money", Value{Kind: KindMoney, Money: 3.5}, "3.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadCatalog_EmptyPathReturnsBuiltin(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog) != len(Builtin()) {
		t.Errorf("expected the builtin catalog, got %d types", len(catalog))
	}
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `types:
  - name: Ships
    fields:
      - name
      - year
      - location
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog) != 1 || catalog[0].Name != "Ships" || len(catalog[0].Fields) != 3 {
		t.Errorf("catalog = %+v", catalog)
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("types: []"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(empty); err == nil {
		t.Error("expected an error for a catalog with no types")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("expected an error for malformed YAML")
	}

	if _, err := LoadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
