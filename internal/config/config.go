package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"planline/internal/schedule"
)

// Config models planline.yml.
type Config struct {
	Calendar struct {
		BusinessHours struct {
			Open  string `yaml:"open"`
			Close string `yaml:"close"`
		} `yaml:"business_hours"`
		SlotMinutes int `yaml:"slot_minutes"`
		Durations   struct {
			TaskMinutes     int `yaml:"task_minutes"`
			ActivityMinutes int `yaml:"activity_minutes"`
			QuickMinutes    int `yaml:"quick_minutes"`
		} `yaml:"durations"`
		View struct {
			Default          string `yaml:"default"`
			AllDayMaxVisible int    `yaml:"all_day_max_visible"`
			ShowWeekends     bool   `yaml:"show_weekends"`
		} `yaml:"view"`
	} `yaml:"calendar"`
	KeyAreas struct {
		Catalog map[string]KeyArea `yaml:"catalog"`
	} `yaml:"key_areas"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig describes one change-feed subscriber. An empty events
// list subscribes to everything.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type KeyArea struct {
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

var viewModes = map[string]bool{
	"day": true, "week": true, "month": true, "quarter": true, "list": true,
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	open, err := schedule.ParseClock(c.Calendar.BusinessHours.Open)
	if err != nil {
		return fmt.Errorf("config.calendar.business_hours.open: %w", err)
	}
	close, err := schedule.ParseClock(c.Calendar.BusinessHours.Close)
	if err != nil {
		return fmt.Errorf("config.calendar.business_hours.close: %w", err)
	}
	if open >= close {
		return fmt.Errorf("config.calendar.business_hours must open before it closes")
	}
	switch c.Calendar.SlotMinutes {
	case 15, 30, 60:
	default:
		return fmt.Errorf("config.calendar.slot_minutes must be 15, 30 or 60")
	}
	d := c.Calendar.Durations
	if d.TaskMinutes <= 0 || d.ActivityMinutes <= 0 || d.QuickMinutes <= 0 {
		return fmt.Errorf("config.calendar.durations must be positive")
	}
	if !viewModes[c.Calendar.View.Default] {
		return fmt.Errorf("config.calendar.view.default must be one of day, week, month, quarter, list")
	}
	if c.Calendar.View.AllDayMaxVisible <= 0 {
		return fmt.Errorf("config.calendar.view.all_day_max_visible must be positive")
	}
	for id, area := range c.KeyAreas.Catalog {
		if id == "" {
			return fmt.Errorf("config.key_areas.catalog contains empty id")
		}
		if area.Description == "" {
			return fmt.Errorf("key area %s has no description", id)
		}
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
	}
	return nil
}

// BusinessHours converts the configured clock window.
func (c *Config) BusinessHours() schedule.BusinessHours {
	open, _ := schedule.ParseClock(c.Calendar.BusinessHours.Open)
	close, _ := schedule.ParseClock(c.Calendar.BusinessHours.Close)
	return schedule.BusinessHours{OpenMinute: open, CloseMinute: close}
}

// SlotStep returns the hour grid quantum.
func (c *Config) SlotStep() time.Duration {
	return time.Duration(c.Calendar.SlotMinutes) * time.Minute
}

// DurationFor returns the default length of a dropped or quick-created
// item of the given kind.
func (c *Config) DurationFor(kind string) time.Duration {
	switch kind {
	case "task":
		return time.Duration(c.Calendar.Durations.TaskMinutes) * time.Minute
	case "activity":
		return time.Duration(c.Calendar.Durations.ActivityMinutes) * time.Minute
	default:
		return time.Duration(c.Calendar.Durations.QuickMinutes) * time.Minute
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "planline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `calendar:
  business_hours:
    open: "08:00"
    close: "17:00"

  slot_minutes: 30

  durations:
    task_minutes: 60
    activity_minutes: 30
    quick_minutes: 30

  view:
    default: week
    all_day_max_visible: 2
    show_weekends: true

key_areas:
  catalog:
    deep-work:
      description: "Focused individual work"
      color: indigo
    meetings:
      description: "Scheduled meetings and calls"
      color: amber
    admin:
      description: "Email, planning and follow-ups"
      color: slate
    travel:
      description: "Commutes and trips"
      color: teal
    personal:
      description: "Personal appointments"
      color: rose
`
