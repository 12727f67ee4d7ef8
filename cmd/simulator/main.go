// Command simulator seeds a demo fleet through the HTTP API and then streams advancing
// odometer and hour-meter readings for it over MQTT.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/ingest"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var errUnauthorized = errors.New("unauthorized")

// apiClient talks to the maintenance API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s failed with status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// signIn logs in, registering the account first when it does not exist yet.
func (c *apiClient) signIn(ctx context.Context, username, email, password string) error {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Username: username, Password: password}, &resp)
	if errors.Is(err, errUnauthorized) {
		log.WithField("username", username).Info("Demo user not found, registering")
		err = c.do(ctx, http.MethodPost, "/auth/register", models.RegisterRequest{
			Username: username,
			Email:    email,
			Password: password,
			Role:     models.RoleManager,
		}, &resp)
	}
	if err != nil {
		return fmt.Errorf("sign in as %s: %w", username, err)
	}
	c.token = resp.Token
	return nil
}

type demoEvent struct {
	Type     string
	DaysAgo  int
	Cost     float64
	Distance *float64
	Hours    *float64
	Notes    string
}

type demoSchedule struct {
	Type  string
	Unit  models.IntervalUnit
	Value float64
}

type demoMachine struct {
	Name         string
	Type         string
	Distance     *float64
	Hours        *float64
	PurchaseDate time.Time
	Notes        string
	History      []demoEvent
	Schedules    []demoSchedule
	// usage per simulated day
	DistancePerDay float64
	HoursPerDay    float64
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var demoFleet = []demoMachine{
	{
		Name:         "Ford F-150",
		Type:         "Truck",
		Distance:     models.Float(120000),
		PurchaseDate: date(2018, time.June, 15),
		Notes:        "Main work truck for hauling and daily operations. Reliable and well-maintained.",
		History: []demoEvent{
			{Type: "Oil Change", DaysAgo: 30, Cost: 75, Distance: models.Float(115000), Notes: "Standard oil and filter change"},
			{Type: "Tire Rotation", DaysAgo: 60, Cost: 60, Distance: models.Float(112000), Notes: "Rotated all four tires"},
			{Type: "Brake Service", DaysAgo: 90, Cost: 320, Distance: models.Float(110000), Notes: "Replaced brake pads and rotors"},
		},
		Schedules: []demoSchedule{
			{Type: "Oil Change", Unit: models.IntervalDistance, Value: 3000},
			{Type: "Tire Rotation", Unit: models.IntervalDistance, Value: 5000},
		},
		DistancePerDay: 110,
	},
	{
		Name:         "John Deere 5075E",
		Type:         "Tractor",
		Hours:        models.Float(1200),
		PurchaseDate: date(2020, time.March, 20),
		Notes:        "Primary tractor for field work and heavy lifting. Main workhorse.",
		History: []demoEvent{
			{Type: "Oil Change", DaysAgo: 45, Cost: 85, Hours: models.Float(1150), Notes: "Engine oil and filter change"},
			{Type: "Filter Replacement", DaysAgo: 90, Cost: 45, Hours: models.Float(1100), Notes: "Replaced air and fuel filters"},
			{Type: "Grease Service", DaysAgo: 10, Cost: 25, Hours: models.Float(1195), Notes: "Lubricated all grease fittings"},
		},
		Schedules: []demoSchedule{
			{Type: "Oil Change", Unit: models.IntervalHours, Value: 50},
			{Type: "Grease Service", Unit: models.IntervalHours, Value: 10},
		},
		HoursPerDay: 1.2,
	},
	{
		Name:         "Bobcat E35",
		Type:         "Excavator",
		Hours:        models.Float(890),
		PurchaseDate: date(2019, time.November, 10),
		Notes:        "Used for excavation and earthmoving projects. Excellent condition.",
		History: []demoEvent{
			{Type: "Oil Change", DaysAgo: 60, Cost: 120, Hours: models.Float(840), Notes: "Hydraulic oil and engine oil change"},
			{Type: "Filter Replacement", DaysAgo: 120, Cost: 65, Hours: models.Float(790), Notes: "Replaced hydraulic and air filters"},
		},
		Schedules: []demoSchedule{
			{Type: "Oil Change", Unit: models.IntervalHours, Value: 50},
			{Type: "Hydraulic Service", Unit: models.IntervalHours, Value: 500},
		},
		HoursPerDay: 0.9,
	},
	{
		Name:         "Honda Pioneer 1000",
		Type:         "Utility Vehicle",
		Distance:     models.Float(3500),
		Hours:        models.Float(280),
		PurchaseDate: date(2022, time.February, 14),
		Notes:        "Utility vehicle for farm operations. Great for rough terrain.",
		History: []demoEvent{
			{Type: "Oil Change", DaysAgo: 20, Cost: 45, Distance: models.Float(3400), Hours: models.Float(275), Notes: "Engine oil change"},
			{Type: "Grease Service", DaysAgo: 5, Cost: 20, Distance: models.Float(3490), Hours: models.Float(278), Notes: "Lubricated all fittings"},
		},
		Schedules: []demoSchedule{
			{Type: "Oil Change", Unit: models.IntervalHours, Value: 25},
		},
		DistancePerDay: 6,
		HoursPerDay:    0.4,
	},
	{
		Name:         "16ft Utility Trailer",
		Type:         "Trailer",
		PurchaseDate: date(2019, time.November, 10),
		Notes:        "Equipment transport trailer. Heavy duty.",
		History: []demoEvent{
			{Type: "Tire Inspection", DaysAgo: 15, Notes: "Checked tire pressure and wear"},
		},
		Schedules: []demoSchedule{
			{Type: "Tire Inspection", Unit: models.IntervalDays, Value: 90},
		},
	},
}

// machineState tracks the meters of one seeded machine.
type machineState struct {
	ID             string
	Name           string
	Distance       *float64
	Hours          *float64
	DistancePerDay float64
	HoursPerDay    float64
}

// seed creates the demo fleet with its history and schedules. Schedule baselines come
// from the logged history.
func seed(ctx context.Context, c *apiClient, fleet []demoMachine, now time.Time) ([]*machineState, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	states := make([]*machineState, 0, len(fleet))

	for _, m := range fleet {
		purchased := m.PurchaseDate
		var eq models.Equipment
		err := c.do(ctx, http.MethodPost, "/equipment", models.EquipmentRequest{
			Name:            m.Name,
			Type:            m.Type,
			CurrentDistance: m.Distance,
			CurrentHours:    m.Hours,
			PurchaseDate:    &purchased,
			Notes:           m.Notes,
		}, &eq)
		if err != nil {
			return states, fmt.Errorf("create %s: %w", m.Name, err)
		}
		id := eq.ID.Hex()

		for _, e := range m.History {
			req := models.MaintenanceRequest{
				MaintenanceType: e.Type,
				Date:            today.AddDate(0, 0, -e.DaysAgo),
				Cost:            models.Float(e.Cost),
				Distance:        e.Distance,
				Hours:           e.Hours,
				Notes:           e.Notes,
			}
			if err := c.do(ctx, http.MethodPost, "/equipment/"+id+"/maintenance", req, nil); err != nil {
				return states, fmt.Errorf("log %s on %s: %w", e.Type, m.Name, err)
			}
		}

		schedules := make([]models.ScheduleRequest, 0, len(m.Schedules))
		for _, s := range m.Schedules {
			schedules = append(schedules, models.ScheduleRequest{Type: s.Type, IntervalUnit: s.Unit, IntervalValue: s.Value})
		}
		if len(schedules) > 0 {
			if err := c.do(ctx, http.MethodPut, "/equipment/"+id+"/schedules", schedules, nil); err != nil {
				return states, fmt.Errorf("save schedules of %s: %w", m.Name, err)
			}
		}

		log.WithFields(log.Fields{
			"equipment_id": id,
			"name":         m.Name,
			"events":       len(m.History),
			"schedules":    len(schedules),
		}).Info("Seeded equipment")

		states = append(states, &machineState{
			ID:             id,
			Name:           m.Name,
			Distance:       copyFloat(m.Distance),
			Hours:          copyFloat(m.Hours),
			DistancePerDay: m.DistancePerDay,
			HoursPerDay:    m.HoursPerDay,
		})
	}
	return states, nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return models.Float(*v)
}

// advance moves the meters forward by days of jittered use and returns the new reading.
// Machines without meters report nothing.
func (s *machineState) advance(days float64, rng *rand.Rand) (models.Reading, bool) {
	reading := models.Reading{Timestamp: time.Now().UTC()}
	jitter := func() float64 { return 0.5 + rng.Float64() }
	if s.Distance != nil && s.DistancePerDay > 0 {
		*s.Distance += s.DistancePerDay * days * jitter()
		reading.Distance = models.Float(*s.Distance)
	}
	if s.Hours != nil && s.HoursPerDay > 0 {
		*s.Hours += s.HoursPerDay * days * jitter()
		reading.Hours = models.Float(*s.Hours)
	}
	return reading, reading.Distance != nil || reading.Hours != nil
}

type publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// publishReadings sends one reading per metered machine.
func publishReadings(pub publisher, topicFilter string, states []*machineState, days float64, rng *rand.Rand) int {
	sent := 0
	for _, s := range states {
		reading, ok := s.advance(days, rng)
		if !ok {
			continue
		}
		topic, err := ingest.ReadingTopic(topicFilter, s.ID)
		if err != nil {
			log.WithError(err).Error("Cannot build reading topic")
			return sent
		}
		payload, err := json.Marshal(reading)
		if err != nil {
			log.WithError(err).Error("Failed to marshal reading")
			continue
		}
		if err := pub.Publish(topic, payload); err != nil {
			log.WithError(err).WithField("equipment_id", s.ID).Warn("Failed to publish reading")
			continue
		}
		sent++
	}
	return sent
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	apiURL := getenv("API_BASE_URL", "http://localhost:8080/api")
	broker := os.Getenv("MQTT_BROKER")
	topic := getenv("MQTT_TOPIC", ingest.DefaultTopic)

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}
	// each tick stands for this much equipment use
	daysPerTick := 1.0
	if v := os.Getenv("SIM_DAYS_PER_TICK"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			daysPerTick = f
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newAPIClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	if client.token == "" {
		username := getenv("SIM_USERNAME", "demo")
		err := client.signIn(ctx, username, getenv("SIM_EMAIL", username+"@example.com"), getenv("SIM_PASSWORD", "demo-password"))
		if err != nil {
			log.WithError(err).Fatal("Failed to sign in")
		}
	}

	log.WithField("api_url", apiURL).Info("Seeding demo fleet")
	states, err := seed(ctx, client, demoFleet, time.Now())
	if err != nil {
		log.WithError(err).Fatal("Failed to seed demo fleet")
	}
	log.WithField("equipment", len(states)).Info("Demo fleet seeded")

	if broker == "" {
		log.Info("MQTT_BROKER not set, skipping reading simulation")
		return
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-simulator-" + uuid.NewString()[:8]).
		SetAutoReconnect(true)
	mc := mqtt.NewClient(opts)
	if token := mc.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
	}
	defer mc.Disconnect(250)

	log.WithFields(log.Fields{
		"broker":        broker,
		"interval":      interval,
		"days_per_tick": daysPerTick,
	}).Info("Reading simulation started")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	pub := mqttPublisher{client: mc}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Simulation stopped")
			return
		case <-ticker.C:
			sent := publishReadings(pub, topic, states, daysPerTick, rng)
			log.WithField("readings", sent).Debug("Published readings")
		}
	}
}
