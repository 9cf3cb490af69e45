package handler

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/sepiroth887/mirror-voice-handler/bus"
	"github.com/sepiroth887/mirror-voice-handler/catalog"
	log "github.com/sirupsen/logrus"
)

const ipAddressRegex = `(?P<IpAddress>([0-9]{1,3}(\.|\s+dot\s+)){3}[0-9]{1,3})`

// Vocabulary per language. Languages without an entry use English.
var vocabulary = map[string]map[string][]string{
	catalog.LangEnglish: {
		"SetIpKeywords":            {"set ip address", "set the ip address", "set mirror ip address", "mirror ip address is"},
		"SystemActionKeywords":     {"shutdown", "reboot", "restart", "refresh", "update", "save", "turn on", "turn off", "wake up", "go to sleep", "hide", "conceal", "show", "display"},
		"SystemKeywords":           {"raspberry pi", "pi", "mirror", "screen", "monitor", "modules", "article details"},
		"ListInstalledKeywords":    {"list installed", "which are the installed", "what are the installed", "tell me the installed"},
		"SingleModuleKeywords":     {"module", "modules"},
		"PageActionKeywords":       {"go to page", "change to page", "show page", "switch to page"},
		"PageKeywords":             slices.Sorted(maps.Keys(pages)),
		"SwipeActionKeywords":      {"swipe", "move", "slide"},
		"LeftRightKeywords":        {"left", "right"},
		"BrightnessActionKeywords": {"set brightness", "change brightness", "adjust brightness", "brightness"},
	},
	catalog.LangThai: {
		"SetIpKeywords": {"ตั้งค่าไอพี", "ตั้งค่าที่อยู่ไอพี"},
	},
}

const brightnessRegex = `brightness (to )?(?P<BrightnessValueKeywords>[a-z0-9 %-]+)`

var intents = []bus.Intent{
	{Name: "SetMirrorIpAddress", Requires: []string{"SetIpKeywords"}, Optional: []string{"IpAddress"}},
	{Name: "ModuleActionIntent", Requires: []string{"ModuleActionKeywords", "ModuleKeywords"}},
	{Name: "SystemActionIntent", Requires: []string{"SystemActionKeywords", "SystemKeywords"}},
	{Name: "ListInstalledModulesIntent", Requires: []string{"ListInstalledKeywords", "SingleModuleKeywords"}},
	{Name: "ChangePagesIntent", Requires: []string{"PageActionKeywords", "PageKeywords"}},
	{Name: "HandleSwipeIntent", Requires: []string{"SwipeActionKeywords", "LeftRightKeywords"}},
	{Name: "AdjustBrightnessIntent", Requires: []string{"BrightnessActionKeywords", "BrightnessValueKeywords"}},
}

func (h *Handler) vocab(name string) []string {
	if words, ok := vocabulary[h.config.Language][name]; ok {
		return words
	}
	return vocabulary[catalog.LangEnglish][name]
}

// moduleNames are the spoken module names from AvailableModules.json.
func (h *Handler) moduleNames() []string {
	modules, err := catalog.Load(filepath.Join(h.config.SkillDir, catalog.AvailableFile))
	if err != nil {
		log.Warnf("no module names to register: %v", err)
		return nil
	}
	var names []string
	for _, m := range modules.Modules {
		name := m.SpokenName
		if h.config.Language == catalog.LangThai {
			name = m.ThaiName
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (h *Handler) intentHandlers() map[string]bus.HandlerFunc {
	return map[string]bus.HandlerFunc{
		"SetMirrorIpAddress":         h.handleSetIP,
		"ModuleActionIntent":         h.handleModuleAction,
		"SystemActionIntent":         h.handleSystemAction,
		"ListInstalledModulesIntent": h.handleListInstalled,
		"ChangePagesIntent":          h.handleChangePage,
		"HandleSwipeIntent":          h.handleSwipe,
		"AdjustBrightnessIntent":     h.handleBrightness,
	}
}

// Attach subscribes to assistant activity and registers the skill's
// vocabulary and intents with the host.
func (h *Handler) Attach(c *bus.Client) error {
	c.On("recognizer_loop:wakeword", h.handleListen)
	c.On("recognizer_loop:utterance", h.handleUtterance)
	c.On("speak", h.handleSpeak)
	c.On("recognizer_loop:audio_output_start", h.handleOutput)
	c.On("recognizer_loop:audio_output_end", h.handleOutputEnd)

	r := bus.NewRegistrar(c, h.config.Bus.SkillID)

	vocabs := map[string][]string{
		"ModuleActionKeywords": slices.Sorted(maps.Keys(moduleActions[h.config.Language])),
		"ModuleKeywords":       h.moduleNames(),
	}
	for name := range vocabulary[catalog.LangEnglish] {
		vocabs[name] = h.vocab(name)
	}
	for _, name := range slices.Sorted(maps.Keys(vocabs)) {
		if err := r.RegisterVocab(name, vocabs[name]...); err != nil {
			return err
		}
	}
	for _, expr := range []string{ipAddressRegex, brightnessRegex} {
		if err := r.RegisterRegex(expr); err != nil {
			return err
		}
	}

	handlers := h.intentHandlers()
	for _, in := range intents {
		if err := r.RegisterIntent(in, handlers[in.Name]); err != nil {
			return err
		}
	}
	log.Infof("registered %d intents as %s", len(intents), h.config.Bus.SkillID)
	return nil
}
