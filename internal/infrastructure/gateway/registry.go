package gateway

import (
	"github.com/minhlq/charterdesk/internal/application"
	"github.com/minhlq/charterdesk/internal/config"
)

// NewRegistry wires all configured provider adapters.
func NewRegistry(cfg *config.Config) application.GatewayRegistry {
	adapters := []application.GatewayAdapter{
		NewVNPayAdapter(cfg.VNPay),
		NewMoMoAdapter(cfg.MoMo),
		NewBankTransferAdapter(cfg.Bank),
	}

	registry := make(application.GatewayRegistry, len(adapters))
	for _, adapter := range adapters {
		registry[adapter.Method()] = adapter
	}
	return registry
}
