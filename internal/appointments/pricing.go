package appointments

// Consultation fees in rupees.
const (
	PriceChat     = 300
	PriceVideo    = 500
	PricePhysical = 700
	DefaultPrice  = PriceChat
)

var priceByType = map[AppointmentType]int{
	TypeChat:     PriceChat,
	TypeVideo:    PriceVideo,
	TypePhysical: PricePhysical,
}

// PriceFor returns the fee for an appointment type. Unknown or unset types
// cost the chat fee.
func PriceFor(t AppointmentType) int {
	if price, ok := priceByType[t]; ok {
		return price
	}
	return DefaultPrice
}

// PriceForLabel prices a raw type string without normalizing it.
func PriceForLabel(label string) int {
	return PriceFor(AppointmentType(label))
}
