package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/tallerapp/vehicle-maintenance/internal/client"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

var vehicleModels = []string{"Corolla", "Golf", "Vento", "Hilux", "208", "Onix", "Cronos", "Kangoo"}

var services = []models.Service{
	{ID: 1, Name: "Cambio de aceite", Price: 120},
	{ID: 2, Name: "Frenos", Price: 250},
	{ID: 3, Name: "Rotación de neumáticos", Price: 80},
	{ID: 4, Name: "Correa de distribución", Price: 400},
	{ID: 5, Name: "Filtros", Price: 60},
}

// Cities for plausible odometer locations
var cities = []models.Location{
	{Lat: -34.6037, Lon: -58.3816}, // Buenos Aires
	{Lat: -34.9011, Lon: -56.1645}, // Montevideo
	{Lat: -31.4201, Lon: -64.1888}, // Córdoba
	{Lat: -32.9442, Lon: -60.6505}, // Rosario
	{Lat: -34.9215, Lon: -57.9545}, // La Plata
}

func jitterLocation(base models.Location, meters float64) models.Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return models.Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

func randomPlate() string {
	letters := "ABCDEFGHJKLMNPRSTUVWXYZ"
	return fmt.Sprintf("%c%c%03d%c%c",
		letters[rand.Intn(len(letters))], letters[rand.Intn(len(letters))],
		rand.Intn(1000),
		letters[rand.Intn(len(letters))], letters[rand.Intn(len(letters))])
}

// VehicleState tracks one simulated vehicle between odometer ticks.
type VehicleState struct {
	VehicleID int64
	Km        float64
	SpeedKmh  float64
	Position  models.Location
}

func registerAccount(ctx context.Context, api *client.Client, role models.Role) (*models.LoginResponse, error) {
	suffix := rand.Intn(1000000)
	req := models.RegisterRequest{
		Username: fmt.Sprintf("sim-%s-%d", role, suffix),
		Email:    fmt.Sprintf("sim-%s-%d@example.com", role, suffix),
		Password: "simulator-password",
		Role:     role,
	}
	resp, err := api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s account: %w", role, err)
	}
	log.WithFields(log.Fields{"username": req.Username, "role": role}).Info("Registered account")
	return resp, nil
}

func createFleet(ctx context.Context, api *client.Client, size int) []*VehicleState {
	states := make([]*VehicleState, 0, size)
	for i := 0; i < size; i++ {
		km := 20000 + rand.Float64()*60000
		created, err := api.CreateVehicle(ctx, models.CreateVehicleRequest{
			LicensePlate: randomPlate(),
			Model:        vehicleModels[rand.Intn(len(vehicleModels))],
			Year:         2015 + rand.Intn(10),
			Km:           math.Round(km),
		})
		if err != nil {
			log.WithError(err).Error("Failed to create vehicle")
			continue
		}
		log.WithFields(log.Fields{
			"vehicle_id": created.ID,
			"model":      created.Model,
			"km":         created.Km,
		}).Info("Created vehicle")

		states = append(states, &VehicleState{
			VehicleID: created.ID,
			Km:        created.Km,
			SpeedKmh:  40 + rand.Float64()*40,
			Position:  jitterLocation(cities[rand.Intn(len(cities))], 500),
		})
	}
	return states
}

func createReminders(ctx context.Context, api *client.Client) {
	for _, svc := range services {
		if rand.Float64() < 0.4 {
			continue
		}
		months := int64([]int{3, 6, 12}[rand.Intn(3)])
		mileage := int64([]int{5000, 10000, 15000}[rand.Intn(3)])
		if _, err := api.CreateReminder(ctx, models.ReminderRequest{
			ServiceID: svc.ID,
			Months:    &months,
			Mileage:   &mileage,
		}); err != nil {
			log.WithError(err).WithField("service_id", svc.ID).Error("Failed to create reminder")
			continue
		}
		log.WithFields(log.Fields{
			"service_id": svc.ID,
			"months":     months,
			"mileage":    mileage,
		}).Info("Created reminder")
	}
}

func bookAndServeAppointments(ctx context.Context, owner, workshop *client.Client, states []*VehicleState) {
	for _, s := range states {
		count := 1 + rand.Intn(2)
		picked := make([]models.Service, 0, count)
		for _, idx := range rand.Perm(len(services))[:count] {
			picked = append(picked, services[idx])
		}

		appt, err := owner.CreateAppointment(ctx, client.AppointmentRequest{
			VehicleID: s.VehicleID,
			Date:      time.Now().AddDate(0, 0, -rand.Intn(180)).Format("2006-01-02"),
			Time:      fmt.Sprintf("%02d:%02d", 9+rand.Intn(8), []int{0, 30}[rand.Intn(2)]),
			Services:  picked,
			Workshop:  &models.Workshop{ID: 1, WorkshopName: "Taller Central"},
		})
		if err != nil {
			log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to book appointment")
			continue
		}

		// Leave some appointments open so pending services show up
		if rand.Float64() < 0.3 {
			continue
		}

		kmAtService := s.Km + rand.Float64()*500
		status := []models.VehicleStatus{models.StatusGood, models.StatusMedium, models.StatusCritical}[rand.Intn(3)]
		if err := workshop.CompleteAppointment(ctx, appt.ID, models.AppointmentCompletion{
			KmAtService:   &kmAtService,
			VehicleStatus: status,
		}); err != nil {
			log.WithError(err).WithField("appointment_id", appt.ID).Error("Failed to complete appointment")
			continue
		}
		s.Km = kmAtService

		log.WithFields(log.Fields{
			"appointment_id": appt.ID,
			"vehicle_id":     s.VehicleID,
			"km_at_service":  math.Round(kmAtService),
			"status":         status,
		}).Info("Completed appointment")
	}
}

func publishOdometer(mqttClient mqtt.Client, s *VehicleState) {
	reading := models.OdometerReading{
		VehicleID: s.VehicleID,
		Km:        math.Round(s.Km),
		Location:  &s.Position,
		Timestamp: time.Now(),
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		log.WithError(err).Error("Failed to marshal odometer reading")
		return
	}
	topic := fmt.Sprintf("vehicles/%d/odometer", s.VehicleID)
	token := mqttClient.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.WithError(token.Error()).WithField("topic", topic).Error("Failed to publish odometer reading")
		return
	}
	log.WithFields(log.Fields{"vehicle_id": s.VehicleID, "km": reading.Km}).Info("Published odometer reading")
}

func simulateVehicle(mqttClient mqtt.Client, s *VehicleState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for range tick.C {
		s.SpeedKmh += (rand.Float64()*2 - 1) * 5
		if s.SpeedKmh < 20 {
			s.SpeedKmh = 20
		}
		if s.SpeedKmh > 110 {
			s.SpeedKmh = 110
		}
		s.Km += s.SpeedKmh * (interval.Seconds() / 3600.0)
		s.Position = jitterLocation(s.Position, 200)

		publishOdometer(mqttClient, s)
	}
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}

	fleetSize := 5
	if v := os.Getenv("FLEET_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			fleetSize = n
		}
	}
	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"broker":     broker,
		"interval":   interval,
	}).Info("Starting maintenance simulation")

	ctx := context.Background()

	owner := client.New(apiURL)
	if _, err := registerAccount(ctx, owner, models.RoleOwner); err != nil {
		log.WithError(err).Fatal("Owner registration failed")
	}
	workshop := client.New(apiURL)
	if _, err := registerAccount(ctx, workshop, models.RoleWorkshop); err != nil {
		log.WithError(err).Fatal("Workshop registration failed")
	}

	states := createFleet(ctx, owner, fleetSize)
	if len(states) == 0 {
		log.Fatal("No vehicles created. Ensure the API is reachable. Exiting.")
	}

	createReminders(ctx, owner)
	bookAndServeAppointments(ctx, owner, workshop, states)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("maintenance-sim-%d", rand.Intn(100000))).
		SetAutoReconnect(true)
	mqttClient := mqtt.NewClient(opts)
	token := mqttClient.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
	}
	defer mqttClient.Disconnect(250)

	for _, s := range states {
		go simulateVehicle(mqttClient, s, interval)
	}

	log.Info("Odometer simulation started")
	select {} // Block forever
}
