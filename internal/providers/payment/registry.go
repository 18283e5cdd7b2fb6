package payment

import (
	"strings"

	"github.com/apexmed/commission/internal/providers/payment/domain"
)

type Registry struct {
	gateways map[string]domain.Gateway
}

func NewRegistry(gateways ...domain.Gateway) *Registry {
	registry := &Registry{gateways: map[string]domain.Gateway{}}
	for _, gateway := range gateways {
		if gateway == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(gateway.Name()))
		if name == "" {
			continue
		}
		registry.gateways[name] = gateway
	}
	return registry
}

func (r *Registry) Gateway(name string) (domain.Gateway, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	gateway, ok := r.gateways[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return gateway, nil
}
