package quality

// purchaseDensity is the fixed approximate milk density used on the
// collection side, where liters do not depend on the measured CLR.
const purchaseDensity = 1.03

// PurchaseLiters converts collected weight to liters.
func PurchaseLiters(kg float64) float64 {
	return Round2(kg / purchaseDensity)
}

// SaleLiters converts dispatched weight to liters using the measured
// CLR as the density proxy. Returns 0 unless both inputs are positive.
// The CLR dependency is deliberate and asymmetric with the purchase
// side: collection volume must not move when CLR is re-measured.
func SaleLiters(kg, clr float64) float64 {
	if kg <= 0 || clr <= 0 {
		return 0
	}
	return Round2(kg / (1.0 + clr/1000))
}
