package customers

import "slices"

// countyCities lists the delivery area, counties in display order.
var countyCities = []struct {
	County string
	Cities []string
}{
	{"Bihor", []string{"Oradea", "Salonta", "Marghita"}},
	{"Cluj", []string{"Cluj-Napoca", "Turda", "Dej"}},
	{"Satu Mare", []string{"Satu Mare", "Carei", "Negrești-Oaș"}},
	{"Sălaj", []string{"Zalău", "Șimleu Silvaniei", "Jibou"}},
}

// County is one entry of the delivery area.
type County struct {
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

// ListCounties returns every county with its cities.
func ListCounties() []County {
	out := make([]County, 0, len(countyCities))
	for _, c := range countyCities {
		out = append(out, County{Name: c.County, Cities: slices.Clone(c.Cities)})
	}
	return out
}

// CitiesFor returns the cities of county, or nil when the county is unknown.
func CitiesFor(county string) []string {
	for _, c := range countyCities {
		if c.County == county {
			return slices.Clone(c.Cities)
		}
	}
	return nil
}

func validLocation(county, city string) (countyOK, cityOK bool) {
	cities := CitiesFor(county)
	if cities == nil {
		return false, false
	}
	return true, slices.Contains(cities, city)
}
