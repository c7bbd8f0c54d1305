package config

import (
	"log"
	"os"

	"paynetgw/internal/paynet"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// BaseURL is the externally reachable root of this service, used to
	// build the return/callback URLs handed to the gateway.
	BaseURL   string
	RedisAddr string

	Paynet paynet.Config

	// ThreeDSecure enables the challenge-passthrough flow: the raw HTML
	// fragment from the gateway is emitted to the browser instead of a
	// redirect.
	ThreeDSecure bool

	// CancelableState is the only order state from which a merchant
	// cancel is allowed to issue a gateway return call.
	CancelableState string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),
		BaseURL:    os.Getenv("BASE_URL"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		Paynet: paynet.Config{
			EndpointID:    os.Getenv("PAYNET_ENDPOINT_ID"),
			MerchantLogin: os.Getenv("PAYNET_MERCHANT_LOGIN"),
			ControlKey:    os.Getenv("PAYNET_CONTROL_KEY"),
			Method:        paynet.Method(os.Getenv("PAYNET_PAYMENT_METHOD")),
			TestMode:      os.Getenv("PAYNET_TEST_MODE") == "true",
			LiveURL:       os.Getenv("PAYNET_LIVE_URL"),
			SandboxURL:    os.Getenv("PAYNET_SANDBOX_URL"),
		},
		ThreeDSecure:    os.Getenv("PAYNET_THREE_D_SECURE") == "true",
		CancelableState: os.Getenv("PAYNET_CANCEL_STATE"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}
	if cfg.Paynet.EndpointID == "" || cfg.Paynet.MerchantLogin == "" || cfg.Paynet.ControlKey == "" {
		log.Fatal("PaynetEasy merchant credentials are not configured")
	}
	if cfg.Paynet.Method == "" {
		cfg.Paynet.Method = paynet.MethodForm
	}

	return cfg
}
