package bot

// Fixed delivery surcharges in PLN. Pickup costs nothing; each shipping
// option adds its own flat fee.
const (
	SurchargeInPost    = 12.0
	SurchargeDPDPoint  = 6.0
	SurchargeDPDLocker = 10.0
)

// orderTotal is the full price of an order: quantity times unit price
// plus the delivery surcharge.
func orderTotal(quantity int, unitPrice, surcharge float64) float64 {
	return float64(quantity)*unitPrice + surcharge
}
