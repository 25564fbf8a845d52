package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistry defines the interface for service registration and discovery.
type ServiceRegistry interface {
	// Register registers a service instance.
	// id: unique identifier for this instance (e.g., serviceName + host + port).
	// name: logical name of the service (e.g., "user-center").
	// address, port: where the service listens.
	// check: health check configuration.
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error

	// Deregister removes a service instance using its unique ID.
	Deregister(id string) error

	// Discover finds healthy instances of a service by name and optional
	// tag, returned as "host:port" strings.
	Discover(name string, tag string) ([]string, error)
}
