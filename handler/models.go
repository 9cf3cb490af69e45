package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/sepiroth887/mirror-voice-handler/catalog"
	"github.com/sepiroth887/mirror-voice-handler/remote"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"

	KalliopeInstalled    = "installed"
	KalliopeNotInstalled = "not installed"
)

// Speaker says text through the voice assistant.
type Speaker interface {
	Speak(text string, expectResponse bool) error
}

type Renderer interface {
	Render(name string, values map[string]string) string
}

type Handler struct {
	config     Configuration
	httpClient *http.Client
	speaker    Speaker
	dialogs    Renderer
	numbers    map[string]int

	mu               sync.RWMutex
	ipAddress        string
	remote           *remote.Client
	modules          *catalog.Catalog
	connectionStatus string
	kalliopeStatus   string
	lastUtterance    string
}

// State is a snapshot of the connection to the mirror.
type State struct {
	ConnectionStatus string `json:"connectionStatus"`
	KalliopeStatus   string `json:"kalliopeStatus"`
	IPAddress        string `json:"ipAddress"`
	URL              string `json:"url"`
	Language         string `json:"language"`
}

type Configuration struct {
	SkillDir string `yaml:"skillDir"`
	Language string `yaml:"language"`
	Bus      struct {
		URL     string `yaml:"url"`
		SkillID string `yaml:"skillID"`
	} `yaml:"bus"`
	Mirror struct {
		Port              int           `yaml:"port"`
		Timeout           time.Duration `yaml:"timeout"`
		ReconnectInterval time.Duration `yaml:"reconnectInterval"`
	} `yaml:"mirror"`
	Kalliope struct {
		MaxMessageChars int `yaml:"maxMessageChars"`
	} `yaml:"kalliope"`
	Status struct {
		Listen string `yaml:"listen"`
	} `yaml:"status"`
}

// DefaultConfiguration returns the settings used for keys missing from the
// config file.
func DefaultConfiguration() Configuration {
	var c Configuration
	c.SkillDir = "."
	c.Language = catalog.LangEnglish
	c.Bus.URL = "ws://127.0.0.1:8181/core"
	c.Bus.SkillID = "magic-mirror-voice-control-skill"
	c.Mirror.Port = 8080
	c.Mirror.Timeout = 5 * time.Second
	c.Mirror.ReconnectInterval = 30 * time.Second
	c.Kalliope.MaxMessageChars = 500
	return c
}
