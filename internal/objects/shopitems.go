package objects

// Ride type codes for facilities that sell nothing worth distributing.
const (
	RideTypeInfoKiosk   = 35
	RideTypeToilet      = 36
	RideTypeCashMachine = 45
	RideTypeFirstAid    = 48
)

// shopItemStalls maps the numeric item code a stall sells to its bucket.
// Codes for litter (empty cans, boxes) and admission never appear on a stall.
var shopItemStalls = map[int]DistributionType{
	0:  OtherStall, // balloon
	1:  OtherStall, // toy
	2:  OtherStall, // map
	3:  OtherStall, // photo
	4:  OtherStall, // umbrella
	5:  DrinkStall, // drink
	6:  FoodStall,  // burger
	7:  FoodStall,  // chips
	8:  FoodStall,  // ice cream
	9:  FoodStall,  // candyfloss
	13: FoodStall,  // pizza
	15: FoodStall,  // popcorn
	16: FoodStall,  // hot dog
	17: FoodStall,  // tentacle
	18: OtherStall, // hat
	19: FoodStall,  // toffee apple
	20: OtherStall, // t-shirt
	21: FoodStall,  // doughnut
	22: DrinkStall, // coffee
	24: FoodStall,  // chicken
	25: DrinkStall, // lemonade
	35: FoodStall,  // pretzel
	36: DrinkStall, // chocolate
	37: DrinkStall, // iced tea
	38: FoodStall,  // funnel cake
	39: OtherStall, // sunglasses
	40: FoodStall,  // beef noodles
	41: FoodStall,  // fried rice noodles
	42: FoodStall,  // wonton soup
	43: FoodStall,  // meatball soup
	44: DrinkStall, // fruit juice
	45: DrinkStall, // soybean milk
	46: DrinkStall, // sujeonggwa
	47: FoodStall,  // sub sandwich
	48: FoodStall,  // cookie
	52: FoodStall,  // roast sausage
	NoShopItem: OtherStall,
}

// StallForShopItem returns the stall bucket for a sold-item code. Unknown
// codes fall back to OtherStall and report ok=false so callers can log it.
func StallForShopItem(code int) (DistributionType, bool) {
	if d, ok := shopItemStalls[code]; ok {
		return d, true
	}
	return OtherStall, false
}
