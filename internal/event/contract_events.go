package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ContractEventPayload struct {
	ContractID       int64  `json:"contractId"`
	DocumentNumber   string `json:"documentNumber"`
	State            string `json:"state"`
	IssueDate        string `json:"issueDate"`
	DisbursedAmount  string `json:"disbursedAmount"`
	Rate             string `json:"rate"`
	InstallmentCount int    `json:"installmentCount"`
}

type ContractCreatedEvent struct {
	EventID   string               `json:"eventId"`
	Actor     string               `json:"actor,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   ContractEventPayload `json:"payload"`
}

type ContractUpdatedEvent struct {
	EventID   string               `json:"eventId"`
	Actor     string               `json:"actor,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   ContractEventPayload `json:"payload"`
}

type ContractDeletedEvent struct {
	EventID    string    `json:"eventId"`
	Actor      string    `json:"actor,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	ContractID int64     `json:"contractId"`
}

type PortfolioSummarizedEvent struct {
	EventID         string    `json:"eventId"`
	Timestamp       time.Time `json:"timestamp"`
	Empty           bool      `json:"empty"`
	TotalReceivable string    `json:"totalReceivable"`
	TotalDisbursed  string    `json:"totalDisbursed"`
	ContractCount   int64     `json:"contractCount"`
	AverageRate     string    `json:"averageRate"`
}

func NewEventID() string {
	return uuid.NewString()
}

func (p *RabbitMQEventPublisher) PublishContractCreated(ctx context.Context, event ContractCreatedEvent) error {
	return p.publish(ctx, RoutingKeyContractCreated, event)
}

func (p *RabbitMQEventPublisher) PublishContractUpdated(ctx context.Context, event ContractUpdatedEvent) error {
	return p.publish(ctx, RoutingKeyContractUpdated, event)
}

func (p *RabbitMQEventPublisher) PublishContractDeleted(ctx context.Context, event ContractDeletedEvent) error {
	return p.publish(ctx, RoutingKeyContractDeleted, event)
}

func (p *RabbitMQEventPublisher) PublishPortfolioSummarized(ctx context.Context, event PortfolioSummarizedEvent) error {
	return p.publish(ctx, RoutingKeyPortfolioSummarized, event)
}
