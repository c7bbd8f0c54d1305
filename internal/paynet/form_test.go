package paynet

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoSubmitForm(t *testing.T) {
	t.Run("ContainsActionAndFields", func(t *testing.T) {
		html := AutoSubmitForm("https://gate.payneteasy.example/pay/987654", url.Values{
			"client_orderid": {"1001"},
			"control":        {"abc123"},
		})

		assert.Contains(t, html, `action="https://gate.payneteasy.example/pay/987654"`)
		assert.Contains(t, html, `name="client_orderid" value="1001"`)
		assert.Contains(t, html, `name="control" value="abc123"`)
		assert.Contains(t, html, "document.forms[0].submit()")
	})

	t.Run("EscapesFieldValues", func(t *testing.T) {
		html := AutoSubmitForm("https://gate.example/pay", url.Values{
			"order_desc": {`"><script>alert(1)</script>`},
		})

		assert.NotContains(t, html, "<script>alert(1)</script>")
	})

	t.Run("NoFields", func(t *testing.T) {
		html := AutoSubmitForm("https://gate.example/pay", nil)
		assert.Contains(t, html, `action="https://gate.example/pay"`)
		assert.NotContains(t, html, "hidden")
	})
}
