package controller

import "github.com/kstepanov/bombardier/internal/serviceapi"

// ServiceResolver looks up the target service's base URL/credentials and
// returns a ready-to-use API client. It is the "service-descriptor
// registry" the spec (§1) treats as an out-of-scope external
// collaborator — the controller only declares the interface it needs.
type ServiceResolver interface {
	Resolve(serviceName string) (serviceapi.ExternalServiceAPI, error)
}
