package bot

// Checkout flow states, in their forced order. Branch points: delivery
// method splits into the pickup and shipping legs, which rejoin at
// payment.
const (
	StateChoosingProduct    = "choosing_product"
	StateChoosingVariant    = "choosing_variant"
	StateEnteringQuantity   = "entering_quantity"
	StateChoosingDelivery   = "choosing_delivery"
	StateChoosingShipping   = "choosing_shipping"
	StateChoosingDPDOption  = "choosing_dpd_option"
	StateEnteringAddress    = "entering_address"
	StateChoosingPickupCity = "choosing_pickup_city"
	StateEnteringPhone      = "entering_phone"
	StateChoosingPayment    = "choosing_payment"
	StateConfirmingOrder    = "confirming_order"
)

// Admin flow states. Product and variant selection happens statelessly
// through tokens before these free-text states are entered.
const (
	StateAddingStock     = "adding_stock"
	StateEditingQuantity = "editing_quantity"
	StateRenamingVariant = "renaming_variant"
)
