package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/ShyamLatake/playout-front/internal/broadcast"
)

// KeepAlive is how often an idle event stream gets a comment line.
var KeepAlive = 20 * time.Second

// Events handles GET /api/events?topic=games|turfs as a server-sent events
// stream. Each event says a collection was replaced; the page re-fetches.
func Events(hub *broadcast.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		topic := c.Query("topic", broadcast.TopicGames)
		if topic != broadcast.TopicGames && topic != broadcast.TopicTurfs {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "topic must be games or turfs",
			})
		}

		if hub.Closed() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": broadcast.ErrClosed.Error()})
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		// The client is registered only once fasthttp runs the writer, so a
		// connection that drops before then never leaves one behind.
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			client := broadcast.NewClient(topic)
			if err := hub.Register(client); err != nil {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				_ = w.Flush()
				return
			}
			defer hub.Unregister(client)

			fmt.Fprintf(w, "retry: 3000\nevent: ready\ndata: {\"topic\":%q}\n\n", topic)
			if w.Flush() != nil {
				return
			}

			ticker := time.NewTicker(KeepAlive)
			defer ticker.Stop()
			for {
				select {
				case data, ok := <-client.Send:
					if !ok {
						return
					}
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", topic, data)
				case <-ticker.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				// A failed flush means the browser went away.
				if w.Flush() != nil {
					return
				}
			}
		}))
		return nil
	}
}
