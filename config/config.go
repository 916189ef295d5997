package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Booking  BookingConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

// BookingConfig carries the scheduling and pricing constants of the booking
// engine. The slot duration is uniform for all scheduled work.
type BookingConfig struct {
	SlotDuration        time.Duration
	WarrantyDays        int
	PrimaryTierSize     int
	SecondaryTierMarkup float64
	Timezone            *time.Location

	// Distance surcharge steps, radii in kilometers.
	NearRadiusKm float64
	MidRadiusKm  float64
	MidSurcharge float64
	FarSurcharge float64
}

var AppConfig *Config

func Load() {
	tz := time.UTC
	if name := getEnv("BOOKING_TIMEZONE", ""); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			tz = loc
		}
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
		},
		Booking: BookingConfig{
			SlotDuration:        time.Duration(getEnvAsInt("SLOT_DURATION_HOURS", 2)) * time.Hour,
			WarrantyDays:        getEnvAsInt("WARRANTY_DAYS", 30),
			PrimaryTierSize:     getEnvAsInt("PRIMARY_TIER_SIZE", 3),
			SecondaryTierMarkup: getEnvAsFloat("SECONDARY_TIER_MARKUP", 1.2),
			Timezone:            tz,
			NearRadiusKm:        getEnvAsFloat("SURCHARGE_NEAR_RADIUS_KM", 3),
			MidRadiusKm:         getEnvAsFloat("SURCHARGE_MID_RADIUS_KM", 7),
			MidSurcharge:        getEnvAsFloat("SURCHARGE_MID", 50),
			FarSurcharge:        getEnvAsFloat("SURCHARGE_FAR", 100),
		},
	}
}

// Booking returns the engine constants, loading defaults if Load was not
// called yet. Tests rely on this to avoid touching process environment.
func Booking() BookingConfig {
	if AppConfig == nil {
		Load()
	}
	return AppConfig.Booking
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
