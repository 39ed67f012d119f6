package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/videotube/internal/service"
)

// SubscriptionHandler handles subscription requests
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Subscribe follows :channelId. Repeating it is harmless.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	created, err := h.subscriptionService.Subscribe(c.Request.Context(), currentUserID(c), c.Param("channelId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if created {
		respond(c, http.StatusCreated, gin.H{"subscribed": true}, "Subscribed successfully")
		return
	}
	respond(c, http.StatusOK, gin.H{"subscribed": true}, "Already subscribed")
}

// Unsubscribe unfollows :channelId
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	if err := h.subscriptionService.Unsubscribe(c.Request.Context(), currentUserID(c), c.Param("channelId")); err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{"subscribed": false}, "Unsubscribed successfully")
}

// Subscribers lists the subscribers of :channelId
func (h *SubscriptionHandler) Subscribers(c *gin.Context) {
	users, err := h.subscriptionService.ListSubscribers(c.Request.Context(), c.Param("channelId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, users, "Subscribers fetched successfully")
}

// SubscribedChannels lists channels :subscriberId follows
func (h *SubscriptionHandler) SubscribedChannels(c *gin.Context) {
	channels, err := h.subscriptionService.ListSubscribedChannels(c.Request.Context(), c.Param("subscriberId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, channels, "Subscribed channels fetched successfully")
}
