package paynet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig(method Method, testMode bool) Config {
	return Config{
		EndpointID:    "123",
		MerchantLogin: "merchant-login",
		ControlKey:    "secret-key",
		Method:        method,
		TestMode:      testMode,
		LiveURL:       "https://gate.payneteasy.example/paynet/api/v2",
		SandboxURL:    "https://sandbox.payneteasy.example/paynet/api/v2",
	}
}

func formResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func TestClient_Sale(t *testing.T) {
	t.Run("DirectSuccess", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "POST", req.Method)
			assert.Equal(t, "https://gate.payneteasy.example/paynet/api/v2/sale/123", req.URL.String())
			assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			fields, err := url.ParseQuery(string(body))
			require.NoError(t, err)
			assert.Equal(t, "1001", fields.Get("client_orderid"))
			assert.Equal(t, "49.00", fields.Get("amount"))
			assert.NotEmpty(t, fields.Get("control"))

			return formResponse(http.StatusOK,
				"type=async-response&status=processing&paynet-order-id=987654&merchant-order-id=1001&redirect-url=https%3A%2F%2Fgate.payneteasy.example%2Fpay%2F987654")
		})

		req := &SaleRequest{
			ClientOrderID: "1001",
			Amount:        49.00,
			Email:         "customer@example.com",
		}
		req.Sign("123", "secret-key")

		resp, err := gw.Sale(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "987654", resp.PaynetOrderID)
		assert.Equal(t, "1001", resp.MerchantOrderID)
		assert.Equal(t, "https://gate.payneteasy.example/pay/987654", resp.RedirectURL)
		assert.Equal(t, StatusPending, resp.Status)
	})

	t.Run("FormModeUsesSaleFormEndpoint", func(t *testing.T) {
		gw := NewClient(testConfig(MethodForm, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "https://gate.payneteasy.example/paynet/api/v2/sale-form/123", req.URL.String())
			return formResponse(http.StatusOK,
				"status=processing&paynet-order-id=11&merchant-order-id=1001&redirect-url=https%3A%2F%2Fgate%2Fform")
		})

		resp, err := gw.Sale(context.Background(), &SaleRequest{ClientOrderID: "1001"})
		require.NoError(t, err)
		assert.Equal(t, "11", resp.PaynetOrderID)
	})

	t.Run("SandboxEndpointInTestMode", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, true)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "https://sandbox.payneteasy.example/paynet/api/v2/sale/123", req.URL.String())
			return formResponse(http.StatusOK, "status=processing&paynet-order-id=1&merchant-order-id=1001")
		})

		_, err := gw.Sale(context.Background(), &SaleRequest{ClientOrderID: "1001"})
		assert.NoError(t, err)
	})

	t.Run("TransportFailure", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := gw.Sale(context.Background(), &SaleRequest{ClientOrderID: "1001"})
		assert.ErrorIs(t, err, ErrUnreachable)
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return formResponse(http.StatusBadGateway, "upstream error")
		})

		_, err := gw.Sale(context.Background(), &SaleRequest{ClientOrderID: "1001"})
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("MissingPaynetOrderID", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return formResponse(http.StatusOK, "status=processing")
		})

		_, err := gw.Sale(context.Background(), &SaleRequest{ClientOrderID: "1001"})
		assert.ErrorIs(t, err, ErrIncomplete)
	})
}

func TestClient_QueryStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "https://gate.payneteasy.example/paynet/api/v2/status/123", req.URL.String())

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			fields, err := url.ParseQuery(string(body))
			require.NoError(t, err)
			assert.Equal(t, "merchant-login", fields.Get("login"))
			assert.Equal(t, "987654", fields.Get("orderid"))
			assert.Equal(t, SignStatus("merchant-login", "1001", "987654", "secret-key"), fields.Get("control"))

			return formResponse(http.StatusOK, "status=approved&paynet-order-id=987654&merchant-order-id=1001")
		})

		req := &StatusRequest{Login: "merchant-login", ClientOrderID: "1001", PaynetOrderID: "987654"}
		req.Sign("secret-key")

		resp, err := gw.QueryStatus(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, resp.Status)
	})

	t.Run("MissingStatusField", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return formResponse(http.StatusOK, "paynet-order-id=987654")
		})

		_, err := gw.QueryStatus(context.Background(), &StatusRequest{ClientOrderID: "1001"})
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("SurfacesChallengeHTML", func(t *testing.T) {
		gw := NewClient(testConfig(MethodDirect, false)).(*client)

		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return formResponse(http.StatusOK,
				"status=processing&paynet-order-id=987654&html="+url.QueryEscape("<form id=\"acs\"></form>"))
		})

		resp, err := gw.QueryStatus(context.Background(), &StatusRequest{ClientOrderID: "1001"})
		require.NoError(t, err)
		assert.Equal(t, `<form id="acs"></form>`, resp.HTML)
	})
}

func TestClient_Return(t *testing.T) {
	gw := NewClient(testConfig(MethodDirect, false)).(*client)

	gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
		assert.Equal(t, "https://gate.payneteasy.example/paynet/api/v2/return/123", req.URL.String())

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		fields, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "Order cancel", fields.Get("comment"))
		assert.NotEmpty(t, fields.Get("control"))

		return formResponse(http.StatusOK, "status=processing&paynet-order-id=987654")
	})

	req := &ReturnRequest{
		Login:         "merchant-login",
		ClientOrderID: "1001",
		PaynetOrderID: "987654",
		Comment:       "Order cancel",
	}
	req.Sign("secret-key")

	resp, err := gw.Return(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "987654", resp.PaynetOrderID)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, NormalizeStatus(" Approved "))
	assert.Equal(t, StatusDeclined, NormalizeStatus("DECLINED"))
	assert.Equal(t, StatusError, NormalizeStatus("error"))

	for _, s := range []string{"", "processing", "filtered", "unknown", "chargeback", "ok"} {
		assert.Equal(t, StatusPending, NormalizeStatus(s), "status %q", s)
	}
}
