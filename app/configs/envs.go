package configs

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type ENV struct {
	AppEnv string
	Port   string
	AppURL string

	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	AppAuthKey string
	AppEncKey  string

	SecretKey             string
	RegistrationSalt      string
	AccountActivationDays int
	PasswordResetDays     int

	EmailHost     string
	EmailPort     string
	EmailUsername string
	EmailPassword string
	EmailFrom     string
	AdminEmails   []string

	B2PSector          string
	B2PSecret          string
	B2PBaseURL         string
	B2PSuccessRedirect string
	B2PFailRedirect    string

	CORSAllowedOrigins []string

	DeliveryHomeCityID  string
	DeliveryHomePrice   decimal.Decimal
	DeliveryRegionPrice decimal.Decimal
	DeliveryFreeFrom    decimal.Decimal
}

func LoadEnv() ENV {

	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: No .env file found ")
	}

	return ENV{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("APP_PORT", ":8000"),
		AppURL: getEnv("APP_URL", "http://localhost:8000"),

		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),

		AppAuthKey: os.Getenv("APP_AUTH_KEY"),
		AppEncKey:  os.Getenv("APP_ENC_KEY"),

		SecretKey:             os.Getenv("SECRET_KEY"),
		RegistrationSalt:      getEnv("REGISTRATION_SALT", "registration"),
		AccountActivationDays: getEnvInt("ACCOUNT_ACTIVATION_DAYS", 7),
		PasswordResetDays:     getEnvInt("PASSWORD_RESET_DAYS", 3),

		EmailHost:     os.Getenv("EMAIL_HOST"),
		EmailPort:     os.Getenv("EMAIL_PORT"),
		EmailUsername: os.Getenv("EMAIL_USERNAME"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		EmailFrom:     getEnv("EMAIL_FROM", os.Getenv("EMAIL_USERNAME")),
		AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),

		B2PSector:          os.Getenv("B2P_SECTOR"),
		B2PSecret:          os.Getenv("B2P_SECRET"),
		B2PBaseURL:         getEnv("B2P_BASE_URL", "https://test.best2pay.net/webapi"),
		B2PSuccessRedirect: os.Getenv("B2P_SUCCESS_REDIRECT"),
		B2PFailRedirect:    os.Getenv("B2P_FAIL_REDIRECT"),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		DeliveryHomeCityID:  os.Getenv("DELIVERY_HOME_CITY_ID"),
		DeliveryHomePrice:   getEnvDecimal("DELIVERY_HOME_PRICE"),
		DeliveryRegionPrice: getEnvDecimal("DELIVERY_REGION_PRICE"),
		DeliveryFreeFrom:    getEnvDecimal("DELIVERY_FREE_FROM"),
	}

}

func (e ENV) IsProduction() bool {
	return e.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s is not a number, using %d", key, fallback)
		return fallback
	}
	return n
}

func getEnvDecimal(key string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("Warning: %s is not a decimal, using 0", key)
		return decimal.Zero
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

var LoadENV = LoadEnv()
