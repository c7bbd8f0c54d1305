package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"paynetgw/internal/ledger"
	"paynetgw/internal/logger"
	"paynetgw/internal/order"
	"paynetgw/internal/paynet"

	"go.uber.org/zap"
)

// CardDetails is the optional direct-mode card input. When absent, every
// card field goes out blank and the customer enters card data on the
// gateway's hosted form.
type CardDetails struct {
	Number      string
	PrintedName string
	ExpireMonth string
	ExpireYear  string
	CVV2        string
}

type Service interface {
	// InitiateCheckout opens a gateway order for the given storefront
	// order and returns the URL the customer must be sent to.
	InitiateCheckout(ctx context.Context, o *order.Order, card *CardDetails) (string, error)
}

type service struct {
	cfg     paynet.Config
	baseURL string
	gateway paynet.Gateway
	ledger  ledger.Repository
	store   order.Store
}

func NewService(cfg paynet.Config, baseURL string, gateway paynet.Gateway, ledgerRepo ledger.Repository, store order.Store) Service {
	return &service{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		gateway: gateway,
		ledger:  ledgerRepo,
		store:   store,
	}
}

func (s *service) InitiateCheckout(ctx context.Context, o *order.Order, card *CardDetails) (string, error) {
	if o.PaymentMethod != order.MethodCode {
		return "", order.ErrUnsupportedMethod
	}

	log := logger.L().With(
		zap.String("order_id", o.ID),
		zap.String("email", o.CustomerEmail),
		zap.Float64("total", o.GrandTotal),
	)

	returnURL := s.returnURL(o.ID)
	req := s.buildSaleRequest(o, card, returnURL)
	req.Sign(s.cfg.EndpointID, s.cfg.ControlKey)

	resp, err := s.gateway.Sale(ctx, req)
	if err != nil {
		return "", err
	}

	attempt := &ledger.Attempt{
		MerchantOrderID: o.ID,
		PaynetOrderID:   resp.PaynetOrderID,
		LastStatus:      resp.RawStatus,
	}
	if err := s.ledger.Put(ctx, attempt); err != nil {
		return "", fmt.Errorf("recording payment attempt: %w", err)
	}

	o.State = order.StatePendingPayment
	if err := s.store.Save(ctx, o); err != nil {
		return "", err
	}

	log.Debug("checkout initiated",
		zap.String("paynet_order_id", resp.PaynetOrderID),
		zap.String("status", resp.RawStatus),
	)

	if resp.RedirectURL == "" {
		// The gateway accepted the sale but gave us nowhere to send the
		// customer. Fall back to the local return endpoint so the flow
		// stays resolvable, and make the degradation visible.
		log.Warn("gateway returned no redirect url, falling back to local return endpoint",
			zap.Any("response", resp.Raw),
		)
		return returnURL, nil
	}
	return resp.RedirectURL, nil
}

func (s *service) returnURL(orderID string) string {
	return fmt.Sprintf("%s/payneteasy/payment/handle-response?orderId=%s", s.baseURL, url.QueryEscape(orderID))
}

func (s *service) buildSaleRequest(o *order.Order, card *CardDetails, returnURL string) *paynet.SaleRequest {
	// Shipping address wins; billing fills each missing field.
	addr := o.ShippingAddress
	if addr.Street == "" {
		addr.Street = o.BillingAddress.Street
	}
	if addr.City == "" {
		addr.City = o.BillingAddress.City
	}
	if addr.Postcode == "" {
		addr.Postcode = o.BillingAddress.Postcode
	}
	if addr.Phone == "" {
		addr.Phone = o.BillingAddress.Phone
	}
	if addr.CountryCode == "" {
		addr.CountryCode = o.BillingAddress.CountryCode
	}

	if card == nil {
		card = &CardDetails{}
	}

	return &paynet.SaleRequest{
		ClientOrderID: o.ID,
		OrderDesc:     "Order # " + o.ID,
		Amount:        o.GrandTotal,
		Currency:      o.CurrencyCode,
		Address1:      addr.Street,
		City:          addr.City,
		ZipCode:       addr.Postcode,
		Country:       addr.CountryCode,
		Phone:         addr.Phone,
		Email:         o.CustomerEmail,
		IPAddress:     o.RemoteIP,
		FirstName:     o.CustomerFirstname,
		LastName:      o.CustomerLastname,

		CreditCardNumber: card.Number,
		CardPrintedName:  card.PrintedName,
		ExpireMonth:      card.ExpireMonth,
		ExpireYear:       card.ExpireYear,
		CVV2:             card.CVV2,

		RedirectSuccessURL: returnURL,
		RedirectFailURL:    returnURL,
		RedirectURL:        returnURL,
		ServerCallbackURL:  returnURL,
	}
}
