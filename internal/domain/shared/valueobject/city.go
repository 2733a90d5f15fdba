package valueobject

import "fmt"

// City represents an operating city of the courier network.
// The set is fixed; inventory is tracked per (product, city).
type City string

const (
	CityCaracas      City = "CARACAS" // capital, cash payments in VES
	CityValencia     City = "VALENCIA"
	CityMaracaibo    City = "MARACAIBO"
	CityBarquisimeto City = "BARQUISIMETO"
	CityMaracay      City = "MARACAY"
)

// AllCities returns every operating city
func AllCities() []City {
	return []City{CityCaracas, CityValencia, CityMaracaibo, CityBarquisimeto, CityMaracay}
}

// IsValid checks if the city is part of the operating set
func (c City) IsValid() bool {
	switch c {
	case CityCaracas, CityValencia, CityMaracaibo, CityBarquisimeto, CityMaracay:
		return true
	}
	return false
}

// IsCapital returns true for the capital-city variant, which carries
// extra payment metadata on guides (USD amount, Bs payment, delivery time)
func (c City) IsCapital() bool {
	return c == CityCaracas
}

// String returns the string representation of the city
func (c City) String() string {
	return string(c)
}

// ParseCity validates and converts a raw string into a City
func ParseCity(raw string) (City, error) {
	c := City(raw)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown city: %q", raw)
	}
	return c, nil
}
