package iyzico

import (
	"fmt"
	"strings"
)

// Gateway endpoints
const (
	EndpointPayment = "/payment/auth"
	EndpointDetail  = "/payment/detail"
	EndpointRefund  = "/payment/refund"
	EndpointCancel  = "/payment/cancel"
)

// Gateway envelope status values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const DefaultLocale = "tr"

// BasketItem is a storefront basket line.
type BasketItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category1 string  `json:"category1"`
	Category2 string  `json:"category2,omitempty"`
	ItemType  string  `json:"itemType,omitempty"`
	Price     float64 `json:"price"`
}

// PaymentCard is the card information for a non-3D authorization.
type PaymentCard struct {
	CardHolderName string `json:"cardHolderName"`
	CardNumber     string `json:"cardNumber"`
	ExpireMonth    string `json:"expireMonth"`
	ExpireYear     string `json:"expireYear"`
	CVC            string `json:"cvc"`
	RegisterCard   int    `json:"registerCard"`
}

// Customer is the buyer as the storefront submits it. IdentityNumber and IP
// may be absent; the surface fills them from configured fallbacks.
type Customer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Surname             string `json:"surname"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	IdentityNumber      string `json:"identityNumber,omitempty"`
	RegistrationAddress string `json:"registrationAddress"`
	IP                  string `json:"ip,omitempty"`
	City                string `json:"city"`
	Country             string `json:"country"`
	ZipCode             string `json:"zipCode,omitempty"`
}

// Address is a shipping or billing contact address.
type Address struct {
	ContactName string `json:"contactName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// CreatePaymentRequest is the storefront-facing payment body.
type CreatePaymentRequest struct {
	ConversationID  string       `json:"conversationId"`
	BasketID        string       `json:"basketId"`
	PaymentChannel  string       `json:"paymentChannel"`
	Installment     int          `json:"installment"`
	Currency        string       `json:"currency"`
	BasketItems     []BasketItem `json:"basketItems"`
	PaymentCard     PaymentCard  `json:"paymentCard"`
	Customer        Customer     `json:"customer"`
	ShippingAddress Address      `json:"shippingAddress"`
	BillingAddress  Address      `json:"billingAddress"`
}

// Validate checks required field groups and reports the first incomplete one
// with a message enumerating its fields.
func (r *CreatePaymentRequest) Validate() error {
	if r.PaymentChannel == "" || r.Installment == 0 || r.Currency == "" {
		return &ValidationError{Message: "paymentChannel, installment and currency are required"}
	}

	c := r.Customer
	if c.ID == "" || c.Name == "" || c.Surname == "" || c.Email == "" || c.Phone == "" ||
		c.RegistrationAddress == "" || c.City == "" || c.Country == "" {
		return &ValidationError{Message: "customer id, name, surname, email, phone, registrationAddress, city and country are required"}
	}

	if len(r.BasketItems) == 0 {
		return &ValidationError{Message: "basketItems must contain at least one item"}
	}
	for _, item := range r.BasketItems {
		if item.ID == "" || item.Name == "" || item.Category1 == "" || item.Price <= 0 {
			return &ValidationError{Message: "basketItems id, name, category1 and price are required"}
		}
	}

	card := r.PaymentCard
	if card.CardHolderName == "" || card.CardNumber == "" || card.ExpireMonth == "" ||
		card.ExpireYear == "" || card.CVC == "" {
		return &ValidationError{Message: "paymentCard cardHolderName, cardNumber, expireMonth, expireYear and cvc are required"}
	}

	return nil
}

// TotalPrice sums the basket item prices.
func (r *CreatePaymentRequest) TotalPrice() float64 {
	var total float64
	for _, item := range r.BasketItems {
		total += item.Price
	}
	return total
}

// Buyer is the gateway-side buyer record.
type Buyer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Surname             string `json:"surname"`
	GSMNumber           string `json:"gsmNumber,omitempty"`
	Email               string `json:"email"`
	IdentityNumber      string `json:"identityNumber"`
	RegistrationAddress string `json:"registrationAddress"`
	IP                  string `json:"ip"`
	City                string `json:"city"`
	Country             string `json:"country"`
	ZipCode             string `json:"zipCode,omitempty"`
}

// wireBasketItem is the basket line as the gateway expects it, with the
// price re-rendered as a two-decimal string.
type wireBasketItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2,omitempty"`
	ItemType  string `json:"itemType"`
	Price     string `json:"price"`
}

// AuthRequest is the assembled /payment/auth body. Field order is fixed by
// the struct definition so the serialized form the signer sees is canonical.
type AuthRequest struct {
	Locale          string           `json:"locale"`
	ConversationID  string           `json:"conversationId"`
	Price           string           `json:"price"`
	PaidPrice       string           `json:"paidPrice"`
	Installment     int              `json:"installment"`
	PaymentChannel  string           `json:"paymentChannel"`
	BasketID        string           `json:"basketId"`
	PaymentGroup    string           `json:"paymentGroup"`
	PaymentCard     PaymentCard      `json:"paymentCard"`
	Buyer           Buyer            `json:"buyer"`
	ShippingAddress Address          `json:"shippingAddress"`
	BillingAddress  Address          `json:"billingAddress"`
	BasketItems     []wireBasketItem `json:"basketItems"`
	Currency        string           `json:"currency"`
}

// AuthOptions carry the values the surface computes before an authorization
// call: generated identifiers, price math results and configured fallbacks.
type AuthOptions struct {
	ConversationID         string
	BasketID               string
	Price                  string
	PaidPrice              string
	FallbackIP             string
	FallbackIdentityNumber string
}

// BuildAuthRequest assembles the gateway authorization body from the
// storefront request and the computed options.
func BuildAuthRequest(req CreatePaymentRequest, opts AuthOptions) AuthRequest {
	c := req.Customer

	identityNumber := c.IdentityNumber
	if identityNumber == "" {
		identityNumber = opts.FallbackIdentityNumber
	}
	buyerIP := c.IP
	if buyerIP == "" {
		buyerIP = opts.FallbackIP
	}

	items := make([]wireBasketItem, len(req.BasketItems))
	for i, item := range req.BasketItems {
		itemType := item.ItemType
		if itemType == "" {
			itemType = "PHYSICAL"
		}
		items[i] = wireBasketItem{
			ID:        item.ID,
			Name:      item.Name,
			Category1: item.Category1,
			Category2: item.Category2,
			ItemType:  itemType,
			Price:     FormatPrice(item.Price),
		}
	}

	contactName := c.Name + " " + c.Surname
	shipping := req.ShippingAddress
	if shipping.ContactName == "" {
		shipping.ContactName = contactName
	}
	billing := req.BillingAddress
	if billing.ContactName == "" {
		billing.ContactName = contactName
	}

	return AuthRequest{
		Locale:         DefaultLocale,
		ConversationID: opts.ConversationID,
		Price:          opts.Price,
		PaidPrice:      opts.PaidPrice,
		Installment:    req.Installment,
		PaymentChannel: req.PaymentChannel,
		BasketID:       opts.BasketID,
		PaymentGroup:   "PRODUCT",
		PaymentCard:    req.PaymentCard,
		Buyer: Buyer{
			ID:                  c.ID,
			Name:                c.Name,
			Surname:             c.Surname,
			GSMNumber:           c.Phone,
			Email:               c.Email,
			IdentityNumber:      identityNumber,
			RegistrationAddress: c.RegistrationAddress,
			IP:                  buyerIP,
			City:                c.City,
			Country:             c.Country,
			ZipCode:             c.ZipCode,
		},
		ShippingAddress: shipping,
		BillingAddress:  billing,
		BasketItems:     items,
		Currency:        req.Currency,
	}
}

// DetailRequest is the /payment/detail body.
type DetailRequest struct {
	Locale                string `json:"locale"`
	ConversationID        string `json:"conversationId"`
	PaymentID             string `json:"paymentId"`
	PaymentConversationID string `json:"paymentConversationId"`
	IP                    string `json:"ip"`
}

// RefundRequest is the /payment/refund body.
type RefundRequest struct {
	Locale               string `json:"locale"`
	ConversationID       string `json:"conversationId"`
	PaymentTransactionID string `json:"paymentTransactionId"`
	Price                string `json:"price"`
	IP                   string `json:"ip,omitempty"`
}

// CancelRequest is the /payment/cancel body.
type CancelRequest struct {
	Locale         string `json:"locale"`
	ConversationID string `json:"conversationId"`
	PaymentID      string `json:"paymentId"`
	IP             string `json:"ip,omitempty"`
}

// PaymentResult is the interpreted gateway envelope. Raw keeps the full
// response for persistence and for fields the relay only passes through.
type PaymentResult struct {
	Status           string
	PaymentID        string
	TransactionID    string
	Price            string
	PaidPrice        string
	ItemTransactions []any
	Raw              map[string]any
}

func newPaymentResult(resp map[string]any) *PaymentResult {
	result := &PaymentResult{Raw: resp}

	if status, ok := resp["status"].(string); ok {
		result.Status = status
	}
	result.PaymentID = stringField(resp, "paymentId")
	result.TransactionID = stringField(resp, "paymentTransactionId")
	result.Price = stringField(resp, "price")
	result.PaidPrice = stringField(resp, "paidPrice")

	if items, ok := resp["itemTransactions"].([]any); ok {
		result.ItemTransactions = items
	}

	return result
}

// stringField reads a response field that the gateway renders either as a
// string or a JSON number, depending on the endpoint.
func stringField(resp map[string]any, key string) string {
	switch v := resp[key].(type) {
	case string:
		return v
	case float64:
		s := fmt.Sprintf("%f", v)
		s = strings.TrimRight(s, "0")
		return strings.TrimSuffix(s, ".")
	default:
		return ""
	}
}

// FormatPrice renders an amount the way the gateway expects it.
func FormatPrice(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
