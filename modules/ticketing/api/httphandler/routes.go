package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/ticketing/v1")

	r.Post("/operations", h.SubmitOperation)
	r.Get("/operations", h.GetOperations)
	r.Get("/operations/:sequence", h.GetOperation)
	r.Get("/events", h.GetEvents)
	r.Get("/events/:eventId", h.GetEvent)
	r.Get("/events/:eventId/tiers/:tierId", h.GetTier)
	r.Get("/events/:eventId/tiers/:tierId/preview", h.PreviewTierPrice)
	r.Get("/tickets", h.GetTickets)
	r.Get("/tickets/:eventId/:tierId/:serial", h.GetTicket)
	r.Get("/balances/:address", h.GetTicketBalances)
	r.Get("/funds/:address", h.GetFundsAccount)
	r.Get("/treasury", h.GetTreasury)
	r.Get("/payouts", h.GetPayouts)
	return nil
}
