package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sepiroth887/mirror-voice-handler/bus"
	"github.com/sepiroth887/mirror-voice-handler/catalog"
	"github.com/sepiroth887/mirror-voice-handler/remote"
	"github.com/sepiroth887/mirror-voice-handler/settings"
	log "github.com/sirupsen/logrus"
)

// MMM-Remote-Control wants actions in uppercase.
var moduleActions = map[string]map[string]string{
	catalog.LangEnglish: {
		"hide": "HIDE", "conceal": "HIDE", "turn off": "HIDE",
		"show": "SHOW", "display": "SHOW", "turn on": "SHOW",
		"install": "INSTALL", "add": "INSTALL",
		"update": "UPDATE",
	},
	catalog.LangThai: {
		"ซ่อน": "HIDE", "ปิด": "HIDE",
		"โชว์": "SHOW", "เปิด": "SHOW", "แสดง": "SHOW",
	},
}

var pages = map[string]int{
	"one": 0, "1": 0, "home": 0,
	"two": 1, "2": 1,
	"three": 2, "3": 2,
	"four": 3, "4": 3, "for": 3,
	"five": 4, "5": 4,
	"six": 5, "6": 5,
	"seven": 6, "7": 6,
	"eight": 7, "8": 7,
	"nine": 8, "9": 8,
	"ten": 9, "10": 9,
}

func (h *Handler) moduleCommand(actionWord, spoken string) (remote.Command, error) {
	action, ok := moduleActions[h.config.Language][strings.ToLower(actionWord)]
	if !ok {
		action = strings.ToUpper(actionWord)
	}

	h.mu.RLock()
	modules := h.modules
	h.mu.RUnlock()
	if modules == nil {
		return remote.Command{}, catalog.ErrNoSuchModule
	}

	module, err := modules.Lookup(spoken, h.config.Language)
	switch {
	case action == "INSTALL" && module.Name != "":
		return remote.Command{Action: action, URL: module.URL}, nil
	case err != nil:
		return remote.Command{}, err
	case action == "UPDATE":
		return remote.Command{Action: action, Module: module.Name}, nil
	}
	return remote.Command{Action: action, Module: module.Identifier}, nil
}

// systemCommand maps a spoken action on a device (pi, mirror, monitor, ...)
// to a remote command. ok is false when the combination makes no sense.
func systemCommand(action, target string) (cmd remote.Command, ok bool) {
	action = strings.ToLower(strings.TrimSpace(action))
	target = strings.ToLower(strings.TrimSpace(target))
	switch action {
	case "hide", "conceal":
		action = "HIDE"
	case "show", "display":
		action = "SHOW"
	}
	isPi := target == "raspberry pi" || target == "pi"

	switch target {
	case "raspberry pi", "pi", "mirror", "screen":
		switch action {
		case "shutdown", "reboot", "restart", "refresh", "update", "save":
			cmd, ok = remote.Command{Action: strings.ToUpper(action)}, true
		case "turn off":
			if isPi {
				cmd, ok = remote.Command{Action: "SHUTDOWN"}, true
			}
		}
		if isPi {
			switch action {
			case "turn on", "SHOW", "HIDE", "save":
				return remote.Command{}, false
			}
		}
	}

	switch target {
	case "monitor", "mirror", "screen", "modules":
		switch action {
		case "turn on", "wake up", "SHOW":
			cmd, ok = remote.Command{Action: "MONITORON"}, true
		case "turn off", "go to sleep", "HIDE":
			cmd, ok = remote.Command{Action: "MONITOROFF"}, true
		}
	}

	if target == "article details" {
		notification := "ARTICLE_LESS_DETAILS"
		switch action {
		case "SHOW", "turn on", "refresh":
			notification = "ARTICLE_MORE_DETAILS"
		}
		cmd, ok = remote.Command{Action: "NOTIFICATION", Notification: notification}, true
	}
	return cmd, ok
}

func pageCommand(page string) (remote.Command, bool) {
	i, ok := pages[strings.ToLower(strings.TrimSpace(page))]
	if !ok {
		return remote.Command{}, false
	}
	return remote.Command{Action: "NOTIFICATION", Notification: "PAGE_CHANGED", Payload: strconv.Itoa(i)}, true
}

func swipeCommand(direction string) (remote.Command, bool) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "left":
		return remote.Command{Action: "NOTIFICATION", Notification: "PAGE_INCREMENT"}, true
	case "right":
		return remote.Command{Action: "NOTIFICATION", Notification: "PAGE_DECREMENT"}, true
	}
	return remote.Command{}, false
}

// send runs cmd and speaks the outcome. failDialog replaces the spoken
// reason when the mirror refuses the command.
func (h *Handler) send(cmd remote.Command, failDialog string) {
	err := h.client().Do(context.Background(), cmd)
	var cmdErr *remote.CommandError
	switch {
	case err == nil:
		h.speak("success", nil, false)
	case errors.Is(err, remote.ErrUnreachable):
		log.Errorf("failed to send %s: %v", cmd.Action, err)
		h.setDisconnected()
		h.handleNotConnected()
	case errors.As(err, &cmdErr):
		log.Warnf("mirror refused %s: %s", cmd.Action, cmdErr.Reason)
		if failDialog != "" {
			h.speak(failDialog, nil, false)
			return
		}
		h.speak("error.reason", map[string]string{"reason": cmdErr.Reason}, false)
	default:
		log.Errorf("failed to send %s: %v", cmd.Action, err)
		h.speak("error.reason", map[string]string{"reason": "an unexpected response"}, false)
	}
}

func (h *Handler) handleSetIP(msg bus.Message) {
	var (
		ip  string
		err error
	)
	if slot := msg.String("IpAddress"); slot != "" {
		ip, err = settings.ParseIP(slot, "")
	} else {
		ip, err = settings.ParseIP(msg.String("utterance"), msg.String("SetIpKeywords"))
	}
	if err != nil {
		log.Warnf("rejected ip address: %v", err)
		h.speak("ip.invalid", nil, true)
		return
	}

	h.speak("ip.setting", map[string]string{"ip": ip}, false)
	if err := h.SetIP(context.Background(), ip); err != nil {
		log.Errorf("failed to apply ip address %s: %v", ip, err)
	}
}

func (h *Handler) handleModuleAction(msg bus.Message) {
	if !h.connected() {
		h.handleNotConnected()
		return
	}
	cmd, err := h.moduleCommand(msg.String("ModuleActionKeywords"), msg.String("ModuleKeywords"))
	if err != nil {
		log.Warnf("module command failed: %v", err)
		h.speak("No.Such.Module", nil, false)
		return
	}
	h.send(cmd, "No.Such.Module")
}

func (h *Handler) handleSystemAction(msg bus.Message) {
	if !h.connected() {
		h.handleNotConnected()
		return
	}
	cmd, ok := systemCommand(msg.String("SystemActionKeywords"), msg.String("SystemKeywords"))
	if !ok {
		h.speak("incorrect_command", nil, true)
		return
	}
	h.send(cmd, "")
}

func (h *Handler) handleListInstalled(bus.Message) {
	if !h.connected() {
		h.handleNotConnected()
		return
	}
	h.mu.RLock()
	names := h.modules.Installed(h.config.Language)
	h.mu.RUnlock()

	if len(names) == 0 {
		h.speak("no.installed.modules", nil, false)
		return
	}
	h.speak("installed.modules", map[string]string{"modules": strings.Join(names, ", ")}, false)
}

func (h *Handler) handleChangePage(msg bus.Message) {
	if !h.connected() {
		h.handleNotConnected()
		return
	}
	cmd, ok := pageCommand(msg.String("PageKeywords"))
	if !ok {
		h.speak("incorrect_command", nil, true)
		return
	}
	h.send(cmd, "")
}

func (h *Handler) handleSwipe(msg bus.Message) {
	if !h.connected() {
		h.handleNotConnected()
		return
	}
	cmd, ok := swipeCommand(msg.String("LeftRightKeywords"))
	if !ok {
		h.speak("incorrect_command", nil, true)
		return
	}
	h.send(cmd, "")
}

func (h *Handler) handleBrightness(msg bus.Message) {
	if !h.connected() {
		h.handleNotConnected()
		return
	}
	value, err := parseBrightness(msg.String("BrightnessValueKeywords"), h.numbers)
	if err != nil {
		log.Warnf("brightness: %v", err)
		h.speak("invalid.value", nil, true)
		return
	}
	h.send(remote.Command{Action: "BRIGHTNESS", Value: strconv.Itoa(value)}, "")
}
