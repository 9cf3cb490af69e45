package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sepiroth887/mirror-voice-handler/bus"
	"github.com/sepiroth887/mirror-voice-handler/catalog"
	"github.com/sepiroth887/mirror-voice-handler/remote"
	"github.com/sepiroth887/mirror-voice-handler/settings"
	log "github.com/sirupsen/logrus"
)

func New(config Configuration, speaker Speaker, dialogs Renderer) *Handler {
	h := &Handler{
		config:           config,
		httpClient:       &http.Client{Timeout: config.Mirror.Timeout},
		speaker:          speaker,
		dialogs:          dialogs,
		numbers:          loadNumberWords(filepath.Join(config.SkillDir, numberWordsFile)),
		ipAddress:        settings.DefaultIP,
		connectionStatus: StatusDisconnected,
		kalliopeStatus:   KalliopeNotInstalled,
	}
	h.remote = remote.New(h.ipAddress, config.Mirror.Port, h.httpClient)
	return h
}

// Connect reads ip.json, asks the mirror which modules it runs and stores
// their identifiers. The user is told about the outcome either way.
func (h *Handler) Connect(ctx context.Context) error {
	return h.connect(ctx, true)
}

func (h *Handler) connect(ctx context.Context, announce bool) error {
	ip, err := settings.LoadIP(h.config.SkillDir)
	if err != nil {
		h.setDisconnected()
		if announce {
			h.speak("ip.missing", nil, true)
		}
		return err
	}

	rc := remote.New(ip, h.config.Mirror.Port, h.httpClient)
	h.mu.Lock()
	h.ipAddress = ip
	h.remote = rc
	h.mu.Unlock()

	installed, err := rc.ModuleData(ctx)
	if err != nil {
		h.setDisconnected()
		if announce {
			if errors.Is(err, remote.ErrUnreachable) {
				h.handleNotConnected()
			} else {
				// e.g. a 403 page when this host is not whitelisted
				h.speak("not.connected", nil, false)
			}
		}
		return fmt.Errorf("failed to fetch module data from %s: %w", rc.Base(), err)
	}

	modules, err := catalog.Load(filepath.Join(h.config.SkillDir, catalog.AvailableFile))
	if err != nil {
		h.setDisconnected()
		if announce {
			h.speak("error.reason", map[string]string{"reason": "a module list that could not be read"}, false)
		}
		return err
	}
	modules.Merge(installed)
	if err := modules.Save(filepath.Join(h.config.SkillDir, catalog.DerivedFile)); err != nil {
		log.Warnf("failed to save module identifiers: %v", err)
	}

	kalliope := KalliopeNotInstalled
	if modules.KalliopeInstalled() {
		kalliope = KalliopeInstalled
	}

	h.mu.Lock()
	h.modules = modules
	h.connectionStatus = StatusConnected
	h.kalliopeStatus = kalliope
	h.mu.Unlock()

	log.Infof("connected to magic mirror at %s (kalliope %s)", rc.Base(), kalliope)
	h.speak("connected", nil, false)
	return nil
}

func (h *Handler) setDisconnected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.connectionStatus == StatusConnected {
		log.Warn("lost connection to magic mirror")
	}
	h.connectionStatus = StatusDisconnected
}

func (h *Handler) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return State{
		ConnectionStatus: h.connectionStatus,
		KalliopeStatus:   h.kalliopeStatus,
		IPAddress:        h.ipAddress,
		URL:              h.remote.Base() + "/remote",
		Language:         h.config.Language,
	}
}

// Modules returns the catalog merged at the last successful connect.
func (h *Handler) Modules() []catalog.Module {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.modules == nil {
		return nil
	}
	return append([]catalog.Module(nil), h.modules.Modules...)
}

// SetIP stores a new mirror address and reconnects.
func (h *Handler) SetIP(ctx context.Context, addr string) error {
	if err := settings.SaveIP(h.config.SkillDir, addr); err != nil {
		return err
	}
	log.Infof("mirror ip address set to %s", addr)
	return h.Connect(ctx)
}

func (h *Handler) connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectionStatus == StatusConnected
}

func (h *Handler) overlayEnabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectionStatus == StatusConnected && h.kalliopeStatus == KalliopeInstalled
}

func (h *Handler) client() *remote.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.remote
}

func (h *Handler) speak(name string, values map[string]string, expectResponse bool) {
	text := h.dialogs.Render(name, values)
	if err := h.speaker.Speak(text, expectResponse); err != nil {
		log.Errorf("failed to speak %q: %v", text, err)
	}
}

func (h *Handler) handleNotConnected() {
	h.mu.RLock()
	ip := h.ipAddress
	h.mu.RUnlock()

	if ip == settings.DefaultIP {
		h.speak("ip.default", nil, true)
		return
	}
	h.speak("not.connected", nil, false)
}

// MonitorMirror retries the connection while the mirror is unreachable.
func (h *Handler) MonitorMirror(ctx context.Context) {
	if h.config.Mirror.ReconnectInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.config.Mirror.ReconnectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.connected() {
				continue
			}
			if err := h.connect(ctx, false); err != nil {
				log.Debugf("mirror still unreachable: %v", err)
			}
		}
	}
}

// Forwarding of assistant activity to the MMM-kalliope overlay.

func (h *Handler) notify(notification, payload string) {
	if !h.overlayEnabled() {
		return
	}
	payload = trimRawText(payload, h.config.Kalliope.MaxMessageChars)
	if err := h.client().Notify(context.Background(), notification, payload); err != nil {
		log.Errorf("failed to notify kalliope: %v", err)
		if errors.Is(err, remote.ErrUnreachable) {
			h.setDisconnected()
		}
	}
}

func (h *Handler) handleListen(bus.Message) {
	h.notify("KALLIOPE", "Listening")
}

func (h *Handler) handleUtterance(msg bus.Message) {
	utterances := msg.Strings("utterances")
	if len(utterances) == 0 {
		return
	}
	h.notify("KALLIOPE", utterances[0])
}

func (h *Handler) handleSpeak(msg bus.Message) {
	utterance := msg.String("utterance")
	h.mu.Lock()
	h.lastUtterance = utterance
	h.mu.Unlock()
	h.notify("KALLIOPE", utterance)
}

func (h *Handler) handleOutput(bus.Message) {
	h.mu.RLock()
	utterance := h.lastUtterance
	h.mu.RUnlock()
	h.notify("KALLIOPE", utterance)
}

func (h *Handler) handleOutputEnd(bus.Message) {
	h.notify("REMOVE_MESSAGE", "REMOVE_MESSAGE")
}

const trimSuffix = " ..."

// trimRawText shortens text to at most limit runes including the trailing
// " ...", preferring to cut after the last sentence end in the final fifth.
func trimRawText(rawText string, limit int) string {
	runes := []rune(rawText)
	if limit <= 0 || len(runes) <= limit {
		return rawText
	}
	budget := limit - len(trimSuffix)
	if budget <= 0 {
		return string(runes[:limit])
	}
	cut := budget - 1
	for i := budget - 1; i >= budget*4/5; i-- {
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut+1])) + trimSuffix
}
