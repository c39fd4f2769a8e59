// Package telemetry ingests odometer readings published over MQTT and applies
// them to stored vehicles.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/tallerapp/vehicle-maintenance/internal/db"
	"github.com/tallerapp/vehicle-maintenance/internal/models"
)

const odometerTopic = "vehicles/+/odometer"

// OdometerSubscriber applies MQTT odometer readings to the vehicle store.
// Kilometer updates go through the monotonic update path, so readings that
// would move a vehicle backwards are silently absorbed.
type OdometerSubscriber struct {
	client   mqtt.Client
	vehicles db.VehicleCollection
}

// NewOdometerSubscriber connects to the broker and returns a subscriber ready
// to Start.
func NewOdometerSubscriber(brokerURL, clientID string, vehicles db.VehicleCollection) (*OdometerSubscriber, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", brokerURL, token.Error())
	}

	return &OdometerSubscriber{client: client, vehicles: vehicles}, nil
}

// Start subscribes to the odometer topic.
func (s *OdometerSubscriber) Start() error {
	token := s.client.Subscribe(odometerTopic, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", odometerTopic, err)
	}
	log.WithField("topic", odometerTopic).Info("Odometer subscriber started")
	return nil
}

// Stop disconnects from the broker.
func (s *OdometerSubscriber) Stop() {
	s.client.Disconnect(250)
}

func (s *OdometerSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	vehicleID, err := vehicleIDFromTopic(msg.Topic())
	if err != nil {
		log.WithError(err).WithField("topic", msg.Topic()).Warn("Ignoring odometer message")
		return
	}

	var reading models.OdometerReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		log.WithError(err).WithField("vehicle_id", vehicleID).Warn("Failed to decode odometer payload")
		return
	}
	reading.VehicleID = vehicleID

	if err := s.Apply(context.Background(), reading); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"vehicle_id": vehicleID,
			"km":         reading.Km,
		}).Error("Failed to apply odometer reading")
	}
}

// Apply validates a reading and pushes it to storage. Negative readings are
// rejected; non-increasing readings are a no-op at the storage layer.
func (s *OdometerSubscriber) Apply(ctx context.Context, reading models.OdometerReading) error {
	if reading.VehicleID <= 0 {
		return fmt.Errorf("invalid vehicle id %d", reading.VehicleID)
	}
	if reading.Km < 0 {
		return fmt.Errorf("negative odometer reading %.1f for vehicle %d", reading.Km, reading.VehicleID)
	}

	if err := s.vehicles.UpdateVehicleKm(ctx, reading.VehicleID, reading.Km); err != nil {
		return err
	}

	fields := log.Fields{"vehicle_id": reading.VehicleID, "km": reading.Km}
	if reading.Location != nil {
		fields["lat"] = reading.Location.Lat
		fields["lon"] = reading.Location.Lon
	}
	log.WithFields(fields).Debug("Applied odometer reading")
	return nil
}

// vehicleIDFromTopic extracts the vehicle id out of vehicles/{id}/odometer.
func vehicleIDFromTopic(topic string) (int64, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "vehicles" || parts[2] != "odometer" {
		return 0, fmt.Errorf("unexpected topic %q", topic)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("unexpected vehicle id %q in topic", parts[1])
	}
	return id, nil
}
