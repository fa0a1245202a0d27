package httpserver

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/Akenaide/byemail/pkg/mailmodel"
	"github.com/Akenaide/byemail/pkg/mailstore"
)

// QueryHandler serves the read-only views over the stored mailboxes
// and messages. Every timestamp-typed field is serialized to ISO-8601
// text before leaving the API boundary.
type QueryHandler struct {
	store mailstore.Store
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(store mailstore.Store) *QueryHandler {
	return &QueryHandler{store: store}
}

// RegisterRoutes registers the query routes to the fiber app
func (h *QueryHandler) RegisterRoutes(app *fiber.App) {
	group := app.Group("/api")

	group.Get("/mailboxes", h.listMailboxes)
	group.Get("/mailbox/:id", h.getMailbox)
	group.Get("/mail/:id", h.getMessage)
}

func (h *QueryHandler) listMailboxes(c *fiber.Ctx) error {
	mailboxes, err := h.store.ListMailboxes(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to list mailboxes: " + err.Error(),
		})
	}

	// Store enumeration order is unspecified; sort by latest activity
	// so repeated queries return identical results.
	sort.Slice(mailboxes, func(i, j int) bool {
		if mailboxes[i].LastMessage.Equal(mailboxes[j].LastMessage) {
			return mailboxes[i].From < mailboxes[j].From
		}
		return mailboxes[i].LastMessage.After(mailboxes[j].LastMessage)
	})

	views := make([]mailmodel.MailboxView, 0, len(mailboxes))
	for _, mb := range mailboxes {
		views = append(views, mailmodel.NewMailboxView(mb))
	}
	return c.JSON(views)
}

func (h *QueryHandler) getMailbox(c *fiber.Ctx) error {
	mb, err := h.store.GetMailbox(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, mailstore.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "mailbox not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to load mailbox: " + err.Error(),
		})
	}
	return c.JSON(mailmodel.NewMailboxView(mb))
}

func (h *QueryHandler) getMessage(c *fiber.Ctx) error {
	msg, err := h.store.GetMessage(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, mailstore.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error: "message not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to load message: " + err.Error(),
		})
	}
	return c.JSON(mailmodel.NewMessageView(msg))
}
