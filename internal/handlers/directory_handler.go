package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/uniportal/PortalBack/internal/models"
)

type participantDirectory interface {
	Resolve(role models.Role, id int64) models.Participant
	ListDoctors() []models.Participant
}

type DirectoryHandler struct {
	directory participantDirectory
}

func NewDirectoryHandler(directory participantDirectory) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListDoctors backs the "contact this faculty member" links.
func (h *DirectoryHandler) ListDoctors(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	department := strings.TrimSpace(c.Query("department"))
	doctors := h.directory.ListDoctors()
	if department != "" {
		filtered := make([]models.Participant, 0, len(doctors))
		for _, doctor := range doctors {
			if strings.EqualFold(doctor.Department, department) {
				filtered = append(filtered, doctor)
			}
		}
		doctors = filtered
	}

	return c.JSON(fiber.Map{
		"doctors":    paginate(doctors, page, limit),
		"pagination": buildPaginationMeta(page, limit, len(doctors)),
	})
}

func (h *DirectoryHandler) GetParticipant(c *fiber.Ctx) error {
	role := models.Role(c.Params("role"))
	if !role.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid participant id"})
	}

	return c.JSON(fiber.Map{"participant": h.directory.Resolve(role, id)})
}
