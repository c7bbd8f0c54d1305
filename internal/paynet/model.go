package paynet

import (
	"net/url"
	"strconv"
)

// Status is the normalized gateway status vocabulary. Anything the gateway
// reports outside {approved, declined, error} is treated as still pending,
// never as a failure.
type Status string

const (
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
	StatusError    Status = "error"
	StatusPending  Status = "pending"
)

// SaleRequest is the flat field set of the sale operation. Card fields are
// blank-defaulted for the form-mode flow, where card entry happens on the
// gateway's page.
type SaleRequest struct {
	ClientOrderID string
	OrderDesc     string
	Amount        float64
	Currency      string
	Address1      string
	City          string
	ZipCode       string
	Country       string
	Phone         string
	Email         string
	IPAddress     string
	FirstName     string
	LastName      string

	CreditCardNumber string
	CardPrintedName  string
	ExpireMonth      string
	ExpireYear       string
	CVV2             string

	RedirectSuccessURL string
	RedirectFailURL    string
	RedirectURL        string
	ServerCallbackURL  string

	Control string
}

// Sign computes and attaches the sale signature. The amount enters the
// signature as truncated minor units.
func (r *SaleRequest) Sign(endpointID, controlKey string) {
	r.Control = SignSale(endpointID, r.ClientOrderID, MinorUnits(r.Amount), r.Email, controlKey)
}

// Values renders the request as the flat key/value form the gateway
// expects on the wire.
func (r *SaleRequest) Values() url.Values {
	return url.Values{
		"client_orderid":       {r.ClientOrderID},
		"order_desc":           {r.OrderDesc},
		"amount":               {strconv.FormatFloat(r.Amount, 'f', 2, 64)},
		"currency":             {r.Currency},
		"address1":             {r.Address1},
		"city":                 {r.City},
		"zip_code":             {r.ZipCode},
		"country":              {r.Country},
		"phone":                {r.Phone},
		"email":                {r.Email},
		"ipaddress":            {r.IPAddress},
		"first_name":           {r.FirstName},
		"last_name":            {r.LastName},
		"credit_card_number":   {r.CreditCardNumber},
		"card_printed_name":    {r.CardPrintedName},
		"expire_month":         {r.ExpireMonth},
		"expire_year":          {r.ExpireYear},
		"cvv2":                 {r.CVV2},
		"redirect_success_url": {r.RedirectSuccessURL},
		"redirect_fail_url":    {r.RedirectFailURL},
		"redirect_url":         {r.RedirectURL},
		"server_callback_url":  {r.ServerCallbackURL},
		"control":              {r.Control},
	}
}

// StatusRequest asks the gateway for the current state of an order pairing.
type StatusRequest struct {
	Login         string
	ClientOrderID string
	PaynetOrderID string
	Control       string
}

func (r *StatusRequest) Sign(controlKey string) {
	r.Control = SignStatus(r.Login, r.ClientOrderID, r.PaynetOrderID, controlKey)
}

func (r *StatusRequest) Values() url.Values {
	return url.Values{
		"login":          {r.Login},
		"client_orderid": {r.ClientOrderID},
		"orderid":        {r.PaynetOrderID},
		"control":        {r.Control},
	}
}

// ReturnRequest is the merchant-initiated cancellation/return operation.
type ReturnRequest struct {
	Login         string
	ClientOrderID string
	PaynetOrderID string
	Comment       string
	Control       string
}

func (r *ReturnRequest) Sign(controlKey string) {
	r.Control = SignStatus(r.Login, r.ClientOrderID, r.PaynetOrderID, controlKey)
}

func (r *ReturnRequest) Values() url.Values {
	return url.Values{
		"login":          {r.Login},
		"client_orderid": {r.ClientOrderID},
		"orderid":        {r.PaynetOrderID},
		"comment":        {r.Comment},
		"control":        {r.Control},
	}
}

// Response is the normalized result of any gateway call. It is transient:
// callers digest it into the ledger and the order, it is never stored.
type Response struct {
	Status          Status
	RawStatus       string
	PaynetOrderID   string
	MerchantOrderID string
	RedirectURL     string
	// HTML carries the 3-D Secure challenge fragment when the gateway
	// requires one.
	HTML         string
	ErrorMessage string
	Raw          map[string]string
}
