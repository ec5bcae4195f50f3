package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-appointments/internal/config"
	"github.com/hackgods/clinic-appointments/internal/db"
	"github.com/hackgods/clinic-appointments/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	CreateRatio  float64
	UpdateRatio  float64
	CancelRatio  float64
	ReadRatio    float64
	PatientLimit int
	DoctorLimit  int
	PostgresDSN  string
}

type doctorRef struct {
	ID        uuid.UUID
	Specialty string
}

type DataPool struct {
	Patients     []uuid.UUID
	Doctors      []doctorRef
	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total       int64
	Success     int64
	ClientError int64
	Error       int64
	Latencies   []time.Duration
	mu          sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case err == nil && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case err == nil && status < 500:
		atomic.AddInt64(&om.ClientError, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Create        OperationMetrics
	Update        OperationMetrics
	Cancel        OperationMetrics
	ReadByID      OperationMetrics
	ListByPatient OperationMetrics
	ListFuture    OperationMetrics
	ListByDoctor  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  *slog.Logger
}

var updateStatuses = []string{"CONFIRMED", "COMPLETED", "SCHEDULED"}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logging.New("simulate", "dev").Error("invalid config", "err", err)
		os.Exit(1)
	}
	logger := logging.New("simulate", "prod")

	logger.Info("simulator starting",
		"duration", cfg.Duration, "workers", cfg.Workers,
		"create", cfg.CreateRatio, "update", cfg.UpdateRatio, "cancel", cfg.CancelRatio, "read", cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Error("load data pool", "err", err)
		os.Exit(1)
	}
	logger.Info("data pool loaded", "patients", len(dataPool.Patients), "doctors", len(dataPool.Doctors))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	sim.Run()
	sim.PrintReport(os.Stdout)
}

func loadConfig() (SimConfig, error) {
	baseCfg, err := config.Load()
	if err != nil {
		return SimConfig{}, err
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		CreateRatio:  getFloat("SIM_CREATE_RATIO", 0.4),
		UpdateRatio:  getFloat("SIM_UPDATE_RATIO", 0.15),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.05),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.4),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 4000),
		DoctorLimit:  getInt("SIM_DOCTOR_LIMIT", 100),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	total := cfg.CreateRatio + cfg.UpdateRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.CreateRatio /= total
		cfg.UpdateRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	if cfg.PostgresDSN == "" {
		return cfg, fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return cfg, fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return cfg, fmt.Errorf("SIM_DURATION must be > 0")
	}
	return cfg, nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM users WHERE role = 'PATIENT' LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	rows.Close()

	rows, err = pool.Query(ctx, `
		SELECT id, COALESCE(specialty, 'General Practice') FROM users WHERE role = 'DOCTOR' LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	for rows.Next() {
		var d doctorRef
		if err := rows.Scan(&d.ID, &d.Specialty); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, d)
	}
	rows.Close()

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded, run cmd/seed first")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded, run cmd/seed first")
	}
	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	c := s.config

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < c.CreateRatio:
			s.doCreate(ctx, rng)
		case r < c.CreateRatio+c.UpdateRatio:
			s.doUpdate(ctx, rng)
		case r < c.CreateRatio+c.UpdateRatio+c.CancelRatio:
			s.doCancel(ctx, rng)
		default:
			switch rng.Intn(4) {
			case 0:
				s.doReadByID(ctx, rng)
			case 1:
				s.doList(ctx, &s.metrics.ListByPatient, "/api/appointments/patient/"+s.randomPatient(rng).String())
			case 2:
				s.doList(ctx, &s.metrics.ListFuture, "/api/appointments/patient/"+s.randomPatient(rng).String()+"/future")
			case 3:
				d := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
				s.doList(ctx, &s.metrics.ListByDoctor, "/api/appointments/doctor/"+d.ID.String())
			}
		}
	}
}

func (s *Simulator) randomPatient(rng *rand.Rand) uuid.UUID {
	return s.pool.Patients[rng.Intn(len(s.pool.Patients))]
}

func (s *Simulator) doCreate(ctx context.Context, rng *rand.Rand) {
	doctor := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	date := time.Now().Add(time.Duration(rng.Intn(30*24)+1) * time.Hour).Truncate(15 * time.Minute)

	status, body, latency, err := s.send(ctx, http.MethodPost, "/api/appointments", map[string]any{
		"patientId":       s.randomPatient(rng),
		"doctorId":        doctor.ID,
		"appointmentDate": date,
		"specialty":       doctor.Specialty,
	})
	if err == nil && status == http.StatusCreated {
		var resp struct {
			ID uuid.UUID `json:"id"`
		}
		if json.Unmarshal(body, &resp) == nil && resp.ID != uuid.Nil {
			s.pool.AddAppointment(resp.ID)
		}
	}
	s.metrics.Create.Record(latency, status, err)
}

func (s *Simulator) doUpdate(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	req := map[string]any{"status": updateStatuses[rng.Intn(len(updateStatuses))]}
	if rng.Intn(2) == 0 {
		req["appointmentDate"] = time.Now().Add(time.Duration(rng.Intn(30*24)+1) * time.Hour).Truncate(15 * time.Minute)
	}

	status, _, latency, err := s.send(ctx, http.MethodPut, "/api/appointments/"+id.String(), req)
	s.metrics.Update.Record(latency, status, err)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	status, _, latency, err := s.send(ctx, http.MethodPut, "/api/appointments/"+id.String(), map[string]any{"status": "CANCELLED"})
	s.metrics.Cancel.Record(latency, status, err)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	status, _, latency, err := s.send(ctx, http.MethodGet, "/api/appointments/"+id.String(), nil)
	s.metrics.ReadByID.Record(latency, status, err)
}

func (s *Simulator) doList(ctx context.Context, om *OperationMetrics, path string) {
	status, _, latency, err := s.send(ctx, http.MethodGet, path, nil)
	om.Record(latency, status, err)
}

func (s *Simulator) send(ctx context.Context, method, path string, payload any) (int, []byte, time.Duration, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, body)
	if err != nil {
		return 0, nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, nil, latency, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, latency, err
}

func (s *Simulator) PrintReport(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "SIMULATION REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Duration: %s\n", s.config.Duration)
	fmt.Fprintf(w, "Workers: %d\n\n", s.config.Workers)

	printOperationReport(w, "Create", &s.metrics.Create)
	printOperationReport(w, "Update", &s.metrics.Update)
	printOperationReport(w, "Cancel", &s.metrics.Cancel)
	printOperationReport(w, "Read by ID", &s.metrics.ReadByID)
	printOperationReport(w, "List by Patient", &s.metrics.ListByPatient)
	printOperationReport(w, "List future by Patient", &s.metrics.ListFuture)
	printOperationReport(w, "List by Doctor", &s.metrics.ListByDoctor)
}

func printOperationReport(w io.Writer, name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	clientErr := atomic.LoadInt64(&om.ClientError)
	serverErr := atomic.LoadInt64(&om.Error)
	avg, min, max, p50, p95 := om.Stats()

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if clientErr > 0 {
		fmt.Fprintf(w, "  4xx: %d (%.1f%%)\n", clientErr, float64(clientErr)/float64(total)*100)
	}
	if serverErr > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", serverErr, float64(serverErr)/float64(total)*100)
	}
	fmt.Fprintf(w, "  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
