package handler

import (
	"github.com/gin-gonic/gin"

	"portfolio-service/events"
	"portfolio-service/logger"
	"portfolio-service/metrics"
)

// announce records a successful write and publishes it. The write already
// happened, so publish failures are only logged.
func announce(c *gin.Context, pub events.Publisher, log logger.Logger, ev events.ContentEvent) {
	metrics.ContentWritesTotal.WithLabelValues(ev.Kind, ev.Action).Inc()

	if err := pub.Publish(c.Request.Context(), ev); err != nil {
		log.Warn("failed to publish %s %s event for %s: %v", ev.Kind, ev.Action, ev.Slug, err)
	}
}
