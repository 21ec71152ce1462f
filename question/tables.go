package question

// Standard is the only reduction known to the game.
const Standard = "STANDARD"

// vat is the value added tax of each country, in percent.
var vat = map[string]float64{
	"AT": 22, "BE": 24, "BG": 21, "CY": 21, "CZ": 19,
	"DE": 20, "DK": 21, "EE": 22, "EL": 20, "ES": 19,
	"FI": 17, "FR": 20, "HR": 23, "HU": 27, "IE": 21,
	"IT": 25, "LT": 23, "LU": 25, "LV": 20, "MT": 20,
	"NL": 20, "PL": 21, "PT": 23, "RO": 20, "SE": 23,
	"SI": 24, "SK": 18, "UK": 21,
}

// countries lists the keys of vat in a fixed order, so that the same random
// sequence always picks the same country.
var countries = []string{
	"AT", "BE", "BG", "CY", "CZ", "DE", "DK", "EE", "EL", "ES",
	"FI", "FR", "HR", "HU", "IE", "IT", "LT", "LU", "LV", "MT",
	"NL", "PL", "PT", "RO", "SE", "SI", "SK", "UK",
}

var reductions = []struct {
	threshold float64
	rate      float64
}{
	{50000, 0.15},
	{10000, 0.10},
	{7000, 0.07},
	{5000, 0.05},
	{1000, 0.03},
}

func standardReduction(total float64) float64 {
	for _, r := range reductions {
		if total >= r.threshold {
			return r.rate
		}
	}
	return 0
}

var words = []string{
	"ping", "hello", "carpaccio", "seller", "invoice", "discount",
	"warmup", "ready", "market", "order",
}
