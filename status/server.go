// Package status serves a small HTTP API reporting the mirror connection.
package status

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sepiroth887/mirror-voice-handler/catalog"
	"github.com/sepiroth887/mirror-voice-handler/handler"
	"github.com/sepiroth887/mirror-voice-handler/settings"
	log "github.com/sirupsen/logrus"
)

type Skill interface {
	State() handler.State
	Modules() []catalog.Module
	SetIP(ctx context.Context, addr string) error
}

type Server struct {
	app   *fiber.App
	skill Skill
}

type setIPRequest struct {
	IPAddress string `json:"ipAddress"`
}

func NewServer(skill Skill) *Server {
	s := &Server{skill: skill}

	app := fiber.New(fiber.Config{
		AppName:               "mirror-voice-handler",
		DisableStartupMessage: true,
	})

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/modules", s.handleModules)
	api.Post("/ip", s.handleSetIP)

	s.app = app
	return s
}

func (s *Server) Listen(addr string) error {
	log.Infof("status api listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.skill.State())
}

func (s *Server) handleModules(c *fiber.Ctx) error {
	modules := s.skill.Modules()
	if modules == nil {
		modules = []catalog.Module{}
	}
	return c.JSON(fiber.Map{"moduleData": modules})
}

func (s *Server) handleSetIP(c *fiber.Ctx) error {
	var req setIPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	err := s.skill.SetIP(c.UserContext(), req.IPAddress)
	switch {
	case errors.Is(err, settings.ErrInvalidIP):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		// saved, but the mirror did not answer
		log.Warnf("ip address saved, mirror not reachable: %v", err)
		return c.Status(fiber.StatusAccepted).JSON(s.skill.State())
	}
	return c.JSON(s.skill.State())
}
