package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/tallerapp/vehicle-maintenance/internal/auth"
	"github.com/tallerapp/vehicle-maintenance/internal/db"
	"github.com/tallerapp/vehicle-maintenance/internal/handlers"
	"github.com/tallerapp/vehicle-maintenance/internal/middleware"
	"github.com/tallerapp/vehicle-maintenance/internal/reminders"
	"github.com/tallerapp/vehicle-maintenance/internal/telemetry"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.Info("Connected to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "maintenance"
	}
	database := client.Database(dbName)

	userColl := &db.MongoUserCollection{Collection: database.Collection("users")}
	vehicleColl := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	appointmentColl := &db.MongoAppointmentCollection{Collection: database.Collection("appointments")}
	reminderColl := &db.MongoReminderCollection{Collection: database.Collection("reminders")}
	sequences := &db.MongoSequences{Collection: database.Collection("counters")}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	engine := reminders.NewEngine()

	authHandler := handlers.NewAuthHandler(authService, userColl, sequences)
	vehicleHandler := handlers.NewVehicleHandler(vehicleColl, sequences)
	reminderHandler := handlers.NewReminderHandler(reminderColl, vehicleColl, appointmentColl, sequences, engine)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentColl, vehicleColl, sequences)
	sheetHandler := handlers.NewTechSheetHandler(vehicleColl, appointmentColl, reminderColl, engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/auth/login", authHandler.Login)
	mux.HandleFunc("/auth/register", authHandler.Register)
	mux.HandleFunc("/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("/auth/change-password", authHandler.ChangePassword)
	mux.HandleFunc("/vehicle", vehicleHandler.Route)
	mux.HandleFunc("/vehicle/", vehicleHandler.Route)
	mux.HandleFunc("/vehicle/user", vehicleHandler.GetUserVehicles)
	mux.HandleFunc("/vehicle/techsheet", sheetHandler.Route)
	mux.HandleFunc("/vehicle/techsheet/", sheetHandler.Route)
	mux.HandleFunc("/reminders", reminderHandler.Route)
	mux.HandleFunc("/reminders/", reminderHandler.Route)
	mux.HandleFunc("/appointments", appointmentHandler.Route)
	mux.HandleFunc("/appointments/", appointmentHandler.Route)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(100, 60)(authMiddleware.Authenticate(mux))

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		subscriber, err := telemetry.NewOdometerSubscriber(broker, "maintenance-api", vehicleColl)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect odometer subscriber")
		}
		if err := subscriber.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start odometer subscriber")
		}
		defer subscriber.Stop()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.WithField("port", port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}
