// Package perf samples host load for the periodic health log.
package perf

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Errors
var (
	ErrInvalidLoadAverage  = errors.New("invalid load average format")
	ErrTemperatureNotFound = errors.New("temperature sensor not found")
)

// Monitor reads load average, CPU temperature and memory usage from procfs
// and sysfs.
type Monitor struct {
	procDir string
	sysDir  string

	mu          sync.RWMutex
	lastCheck   time.Time
	loadAvg     float64
	temperature float64
	memoryUsage float64 // percent
	hasTemp     bool
}

// NewMonitor returns a monitor over the live /proc and /sys trees.
func NewMonitor() *Monitor {
	return newMonitorAt("/proc", "/sys")
}

func newMonitorAt(procDir, sysDir string) *Monitor {
	return &Monitor{procDir: procDir, sysDir: sysDir}
}

// Update refreshes all readings. Only a missing load average is an error;
// boards without a thermal zone simply report no temperature.
func (m *Monitor) Update() error {
	load, err := m.readLoadAverage()
	if err != nil {
		return err
	}
	temp, tempErr := m.readTemperature()
	mem := m.readMemoryUsage()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadAvg = load
	m.temperature = temp
	m.hasTemp = tempErr == nil
	m.memoryUsage = mem
	m.lastCheck = time.Now()
	return nil
}

func (m *Monitor) readLoadAverage() (float64, error) {
	data, err := os.ReadFile(filepath.Join(m.procDir, "loadavg"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return 0, ErrInvalidLoadAverage
	}
	return strconv.ParseFloat(fields[0], 64)
}

// readTemperature averages every readable thermal zone, in degrees Celsius.
func (m *Monitor) readTemperature() (float64, error) {
	zones, _ := filepath.Glob(filepath.Join(m.sysDir, "class", "thermal", "thermal_zone*", "temp"))

	var total float64
	var count int
	for _, path := range zones {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			continue
		}
		total += milli / 1000.0
		count++
	}
	if count == 0 {
		return 0, ErrTemperatureNotFound
	}
	return total / float64(count), nil
}

func (m *Monitor) readMemoryUsage() float64 {
	data, err := os.ReadFile(filepath.Join(m.procDir, "meminfo"))
	if err != nil {
		return 0
	}

	var total, available int64
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, _ = strconv.ParseInt(fields[1], 10, 64)
		case "MemAvailable:":
			available, _ = strconv.ParseInt(fields[1], 10, 64)
		}
	}
	if total <= 0 {
		return 0
	}
	return 100.0 * float64(total-available) / float64(total)
}

// LoadAverage returns the 1-minute load average.
func (m *Monitor) LoadAverage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadAvg
}

// Temperature returns the CPU temperature and whether a sensor was found.
func (m *Monitor) Temperature() (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.temperature, m.hasTemp
}

// MemoryUsage returns used memory in percent.
func (m *Monitor) MemoryUsage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.memoryUsage
}

// IsUnderStress reports a load or temperature high enough to explain
// dropped frames.
func (m *Monitor) IsUnderStress() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadAvg > 1.5 || (m.hasTemp && m.temperature > 70.0)
}
