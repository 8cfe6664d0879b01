package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tripcast/api"
	"tripcast/config"
	"tripcast/internal/errorutil"
	"tripcast/internal/logger"
	"tripcast/location"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", getDefaultConfigPath(), "Path to TOML configuration file")
	logLevel := flag.String("log-level", "", "Logging level override (debug, info, warn, error)")
	generateConfig := flag.Bool("generate-config", false, "Generate a sample configuration file and exit")
	share := flag.Bool("share", false, "Compose and print a shareable location message")
	watch := flag.Bool("watch", false, "Keep running and refresh periodically")
	highAccuracy := flag.Bool("high-accuracy", false, "Request a fresh high-accuracy device fix")
	lat := flag.Float64("lat", 0, "Explicit latitude, bypasses positioning (use with -lon)")
	lon := flag.Float64("lon", 0, "Explicit longitude, bypasses positioning (use with -lat)")
	flag.Parse()

	// Handle config generation
	if *generateConfig {
		if err := config.GenerateSampleConfig(*configPath); err != nil {
			logger.Fatal("Failed to generate sample config: %v", err)
		}
		logger.Info("Sample configuration file created at: %s", *configPath)
		logger.Info("Please edit the file to add your API keys and customize settings")
		return
	}

	// A .env file may carry PLACES_API_KEY; missing is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		var configNotFound *config.ConfigNotFoundError
		if errors.As(err, &configNotFound) {
			logger.Fatal("%v", err)
		}
		logger.Fatal("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration validation failed: %v", err)
	}

	// Configure logging, CLI flag winning over the config file
	level := cfg.Logging.Level
	if *logLevel != "" {
		if _, err := logger.ParseLevel(*logLevel); err != nil {
			logger.Warn("Invalid log level: %s, using %s from config", *logLevel, level)
		} else {
			level = *logLevel
		}
	}
	if err := logger.Initialize(logger.Config{
		Enabled:         cfg.Logging.Enabled,
		Directory:       cfg.Logging.Directory,
		FilenamePattern: cfg.Logging.FilenamePattern,
		Level:           level,
		MaxFiles:        cfg.Logging.MaxFiles,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		ConsoleOutput:   cfg.Logging.ConsoleOutput,
	}); err != nil {
		logger.Warn("File logging unavailable, continuing on console: %v", err)
	}

	logger.Info("Tripcast - Location & Weather Companion")
	logger.Debug("Starting with config: %s", *configPath)

	service := buildService(cfg)
	defer service.Close()

	opts := location.Options{HighAccuracy: *highAccuracy}
	if *lat != 0 || *lon != 0 {
		if err := errorutil.ValidateCoordinates(*lat, *lon); err != nil {
			logger.Fatal("Invalid explicit coordinates: %v", err)
		}
		opts.ExplicitCoords = &location.ExplicitCoords{Latitude: *lat, Longitude: *lon}
	}

	ctx := context.Background()
	snap, err := service.RequestLocationWeather(ctx, opts)
	if err != nil {
		logger.Fatal("Location resolution failed: %v", err)
	}
	if snap == nil {
		snap = service.Current()
	}
	if snap == nil {
		logger.Fatal("No location or weather available")
	}

	printSnapshot(snap)

	if *share {
		text, err := service.ShareLocation(ctx)
		if err != nil {
			logger.Fatal("Share failed: %v", err)
		}
		if text == "" {
			logger.Warn("Share produced no text")
		}
	}

	if *watch {
		runWatch(service, cfg)
	}
}

// buildService wires the API clients and pipeline collaborators from config.
func buildService(cfg *config.Config) *location.Service {
	weather := api.NewWeatherClient()
	geocoder := api.NewReverseGeocoder(cfg.Location.Language)
	ipLocator := api.NewIPLocator()

	var landmarks location.POIFinder
	if err := errorutil.ValidateAPIKey("apis.places", cfg.APIs.Places, 8); err != nil {
		logger.Warn("POI landmark escalation disabled: %v", err)
	} else {
		landmarks = api.NewLandmarkResolver(cfg.APIs.Places, cfg.Location.Language)
	}

	deps := location.Deps{
		Weather:   weather,
		Geocoder:  geocoder,
		Landmarks: landmarks,
		IPLocator: ipLocator,
		Geolocator: &location.StaticGeolocator{
			Coords: location.Coordinates{
				Latitude:  cfg.Location.DeviceLatitude,
				Longitude: cfg.Location.DeviceLongitude,
			},
		},
		Store: location.NewSnapshotStore(cfg.Cache.SnapshotPath),
		Share: &location.WriterSink{W: os.Stdout},
	}

	pipelineCfg := location.Config{
		Fallback: location.Coordinates{
			Latitude:  cfg.Location.FallbackLatitude,
			Longitude: cfg.Location.FallbackLongitude,
		},
		SilentMinGap:         time.Duration(cfg.Location.SilentGapSeconds) * time.Second,
		ExplicitMinGap:       time.Duration(cfg.Location.ExplicitGapSeconds) * time.Second,
		HighAccuracyInterval: time.Duration(cfg.Location.HighAccuracyIntervalMinutes) * time.Minute,
		FixTimeout:           time.Duration(cfg.Location.FixTimeoutSeconds) * time.Second,
		HighAccuracyTimeout:  time.Duration(cfg.Location.HighAccuracyTimeoutSeconds) * time.Second,
	}

	return location.NewService(deps, pipelineCfg)
}

// printSnapshot renders the resolved snapshot and a daily outlook to stdout.
func printSnapshot(snap *location.WeatherSnapshot) {
	where := snap.LocationName
	if snap.Landmark != "" {
		where = fmt.Sprintf("%s (%s)", snap.LocationName, snap.Landmark)
	}
	fmt.Printf("Location: %s [%s]\n", where, snap.Source)

	if snap.HasCoordinates() {
		fmt.Printf("Coordinates: %.4f, %.4f\n", *snap.Latitude, *snap.Longitude)
	}
	if snap.Temperature != nil {
		fmt.Printf("Now: %.1f°C, %s\n", *snap.Temperature, snap.Description)
	}
	if snap.WeatherCode != nil {
		fmt.Printf("Tip: %s\n", api.DescribeWeatherCode(*snap.WeatherCode).Advice)
	}

	if snap.Daily == nil {
		return
	}
	fmt.Println("\nOutlook:")
	for i, day := range snap.Daily.Time {
		if i >= len(snap.Daily.WeatherCode) || i >= len(snap.Daily.TemperatureMax) || i >= len(snap.Daily.TemperatureMin) {
			break
		}
		desc := api.DescribeWeatherCode(snap.Daily.WeatherCode[i])
		fmt.Printf("  %s  %-12s %5.1f°C / %.1f°C\n",
			day, desc.Text, snap.Daily.TemperatureMax[i], snap.Daily.TemperatureMin[i])
	}
}

// runWatch keeps the periodic refresh running until interrupted.
func runWatch(service *location.Service, cfg *config.Config) {
	interval := time.Duration(cfg.Location.RefreshIntervalMinutes) * time.Minute
	if err := service.StartWatch(interval); err != nil {
		logger.Fatal("Failed to start periodic refresh: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received %s, shutting down", sig)
}

// getDefaultConfigPath returns a cross-platform default config path
func getDefaultConfigPath() string {
	// Try to use config.toml in the current directory
	return filepath.Clean("config.toml")
}
