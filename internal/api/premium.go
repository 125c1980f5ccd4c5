package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	apperrors "emberfree_go_backend/internal/errors"
	"emberfree_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
)

func createCheckoutHandler(premiumService *services.PremiumService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		priceID := os.Getenv("STRIPE_PREMIUM_PRICE_ID")
		if priceID == "" {
			apperrors.HandleError(c, apperrors.New500Error(errors.New("STRIPE_PREMIUM_PRICE_ID is not configured")))
			return
		}

		session, err := premiumService.CreateCheckoutSession(
			user.ID.String(),
			priceID,
			os.Getenv("CHECKOUT_SUCCESS_URL"),
			os.Getenv("CHECKOUT_CANCEL_URL"),
		)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"session_id": session.ID})
	}
}

func stripeWebhookHandler(premiumService *services.PremiumService, userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const MaxBodyBytes = int64(65536)
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
			return
		}

		event, err := premiumService.HandleWebhook(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			log.Warn().Err(err).Msg("stripe webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to verify webhook signature"})
			return
		}

		switch event.Type {
		case "checkout.session.completed":
			var session stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse checkout session"})
				return
			}
			if err := activatePremium(session, userService); err != nil {
				log.Error().Err(err).Msg("failed to activate premium")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process checkout session"})
				return
			}
		case "customer.subscription.deleted":
			var sub stripe.Subscription
			if err := json.Unmarshal(event.Data.Raw, &sub); err == nil {
				log.Info().Str("subscription", sub.ID).Msg("subscription cancelled")
			}
		default:
			log.Debug().Str("type", string(event.Type)).Msg("unhandled stripe event")
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func activatePremium(session stripe.CheckoutSession, userService *services.UserService) error {
	userID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		return err
	}
	return userService.SetPremium(userID, true)
}
