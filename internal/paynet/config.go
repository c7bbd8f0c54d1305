package paynet

// Method selects how the sale operation reaches the gateway: a direct
// server-to-server call carrying card data, or the hosted payment form
// where the customer enters card data on the gateway's page.
type Method string

const (
	MethodDirect Method = "direct"
	MethodForm   Method = "form"
)

// Config carries the merchant credentials and endpoint selection for one
// gateway integration. It is built once at startup and passed around as an
// immutable value. ControlKey is the shared signing secret and must never
// be logged or transmitted.
type Config struct {
	EndpointID    string
	MerchantLogin string
	ControlKey    string
	Method        Method
	TestMode      bool
	LiveURL       string
	SandboxURL    string
}

// ActionURL resolves the gateway base URL for the configured mode.
func (c Config) ActionURL() string {
	if c.TestMode {
		return c.SandboxURL
	}
	return c.LiveURL
}
