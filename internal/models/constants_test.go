package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Request(t *testing.T) {
	assert.True(t, CanTransition(RequestStatusTransitions, RequestStatusOpen, RequestStatusPending))
	assert.True(t, CanTransition(RequestStatusTransitions, RequestStatusOpen, RequestStatusCancelled))
	assert.True(t, CanTransition(RequestStatusTransitions, RequestStatusPending, RequestStatusAccepted))
	assert.True(t, CanTransition(RequestStatusTransitions, RequestStatusAccepted, RequestStatusCompleted))

	assert.False(t, CanTransition(RequestStatusTransitions, RequestStatusOpen, RequestStatusAccepted))
	assert.False(t, CanTransition(RequestStatusTransitions, RequestStatusOpen, RequestStatusCompleted))
	assert.False(t, CanTransition(RequestStatusTransitions, RequestStatusCompleted, RequestStatusOpen))
	assert.False(t, CanTransition(RequestStatusTransitions, RequestStatusCancelled, RequestStatusOpen))
}

func TestCanTransition_Offer(t *testing.T) {
	assert.True(t, CanTransition(OfferStatusTransitions, OfferStatusPending, OfferStatusAccepted))
	assert.True(t, CanTransition(OfferStatusTransitions, OfferStatusPending, OfferStatusRejected))
	assert.True(t, CanTransition(OfferStatusTransitions, OfferStatusPending, OfferStatusCancelled))
	assert.True(t, CanTransition(OfferStatusTransitions, OfferStatusAccepted, OfferStatusDelivered))
	assert.True(t, CanTransition(OfferStatusTransitions, OfferStatusDelivered, OfferStatusCompleted))

	assert.False(t, CanTransition(OfferStatusTransitions, OfferStatusPending, OfferStatusDelivered))
	assert.False(t, CanTransition(OfferStatusTransitions, OfferStatusRejected, OfferStatusPending))
	assert.False(t, CanTransition(OfferStatusTransitions, OfferStatusCompleted, OfferStatusCancelled))
	assert.False(t, CanTransition(OfferStatusTransitions, OfferStatusCancelled, OfferStatusAccepted))
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(RequestStatusTransitions, "garbage", RequestStatusOpen))
	assert.False(t, CanTransition(OfferStatusTransitions, OfferStatusPending, "garbage"))
}

func TestAllowedTransitions(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{RequestStatusPending, RequestStatusCancelled},
		AllowedTransitions(RequestStatusTransitions, RequestStatusOpen))

	// Терминальные и неизвестные статусы возвращают пустой срез, не nil-панику.
	assert.Empty(t, AllowedTransitions(RequestStatusTransitions, RequestStatusCompleted))
	assert.NotNil(t, AllowedTransitions(RequestStatusTransitions, "garbage"))
}

func TestIsLiveOfferStatus(t *testing.T) {
	assert.True(t, IsLiveOfferStatus(OfferStatusPending))
	assert.True(t, IsLiveOfferStatus(OfferStatusAccepted))
	assert.True(t, IsLiveOfferStatus(OfferStatusDelivered))
	assert.True(t, IsLiveOfferStatus(OfferStatusDisputed))

	assert.False(t, IsLiveOfferStatus(OfferStatusCancelled))
	assert.False(t, IsLiveOfferStatus(OfferStatusRejected))
}
