package models

import "time"

// PaymentProcessor identifies how a property collects payment from guests
type PaymentProcessor string

const (
	ProcessorStripe PaymentProcessor = "stripe"
	ProcessorWise   PaymentProcessor = "wise"
)

// PaymentMethod is a method a guest can choose at checkout
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// Property represents the rental unit a guest's access token belongs to
type Property struct {
	ID                 int                 `json:"id"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	InstagramURL       string              `json:"instagram_url,omitempty"`
	Language           string              `json:"language"`
	Currency           string              `json:"currency"`
	Tags               []string            `json:"tags"`
	HeroImageURL       string              `json:"hero_image_url,omitempty"`
	PaymentProcessor   PaymentProcessor    `json:"payment_processor"`
	WiseAccountDetails *WiseAccountDetails `json:"wise_account_details,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// WiseAccountDetails holds the bank transfer instructions shown to guests
type WiseAccountDetails struct {
	BankName          string `json:"bank_name,omitempty"`
	AccountNumber     string `json:"account_number,omitempty"`
	RoutingNumber     string `json:"routing_number,omitempty"`
	SwiftCode         string `json:"swift_code,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
	Instructions      string `json:"instructions,omitempty"`
}

// PaymentMethods returns the checkout methods this property accepts.
// Stripe properties that also publish bank details accept both.
func (p *Property) PaymentMethods() []PaymentMethod {
	switch p.PaymentProcessor {
	case ProcessorWise:
		return []PaymentMethod{PaymentMethodBankTransfer}
	case ProcessorStripe:
		if p.WiseAccountDetails != nil {
			return []PaymentMethod{PaymentMethodCard, PaymentMethodBankTransfer}
		}
		return []PaymentMethod{PaymentMethodCard}
	default:
		return nil
	}
}

// AcceptsPaymentMethod reports whether method is offered by the property
func (p *Property) AcceptsPaymentMethod(method PaymentMethod) bool {
	for _, m := range p.PaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}
