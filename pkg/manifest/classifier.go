package manifest

import "strings"

// Phase is an ordered bucket manifests are classified into for staged
// application. Ordering is fixed and total.
type Phase int

const (
	// PhaseFoundational holds CRDs and Namespaces.
	PhaseFoundational Phase = iota
	// PhaseControllers holds core-API workload primitives (deployments,
	// RBAC, config) that install controllers.
	PhaseControllers
	// PhaseProviders holds resource-orchestration provider registrations.
	PhaseProviders
	// PhaseProviderConfigs holds credentials/config bound to a provider.
	PhaseProviderConfigs
	// PhaseWorkloads holds everything else.
	PhaseWorkloads
)

// Phases returns all phases in application order.
func Phases() []Phase {
	return []Phase{
		PhaseFoundational,
		PhaseControllers,
		PhaseProviders,
		PhaseProviderConfigs,
		PhaseWorkloads,
	}
}

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseFoundational:
		return "foundational"
	case PhaseControllers:
		return "controllers"
	case PhaseProviders:
		return "providers"
	case PhaseProviderConfigs:
		return "providerconfigs"
	case PhaseWorkloads:
		return "workloads"
	default:
		return "unknown"
	}
}

// crossplanePackagePrefix is the apiVersion family of package-manager
// registrations (providers, functions, runtime configs).
const crossplanePackagePrefix = "pkg.crossplane.io/"

// packageKinds are the registration kinds within the package-manager family.
//
//nolint:gochecknoglobals
var packageKinds = map[string]bool{
	"Provider":                true,
	"Function":                true,
	"DeploymentRuntimeConfig": true,
}

// controllerAPIVersions is the fixed allow-list of core API groups whose
// workload primitives belong to the controllers phase.
//
//nolint:gochecknoglobals
var controllerAPIVersions = map[string]bool{
	"v1":                           true,
	"apps/v1":                      true,
	"batch/v1":                     true,
	"rbac.authorization.k8s.io/v1": true,
}

// controllerKinds is the fixed set of controller/workload primitives.
//
//nolint:gochecknoglobals
var controllerKinds = map[string]bool{
	"Deployment":         true,
	"DaemonSet":          true,
	"StatefulSet":        true,
	"ServiceAccount":     true,
	"Role":               true,
	"RoleBinding":        true,
	"ClusterRole":        true,
	"ClusterRoleBinding": true,
	"ConfigMap":          true,
	"Secret":             true,
	"Service":            true,
	"Job":                true,
}

// Classify assigns a manifest to exactly one phase. It is pure and total:
// rules are evaluated in precedence order and the first match wins, with
// PhaseWorkloads as the default.
func Classify(m Manifest) Phase {
	kind := m.Kind()
	apiVersion := m.APIVersion()

	if kind == "CustomResourceDefinition" || kind == "Namespace" {
		return PhaseFoundational
	}

	if strings.HasPrefix(apiVersion, crossplanePackagePrefix) && packageKinds[kind] {
		return PhaseProviders
	}

	if kind == "ProviderConfig" {
		return PhaseProviderConfigs
	}

	if controllerAPIVersions[apiVersion] && controllerKinds[kind] {
		return PhaseControllers
	}

	return PhaseWorkloads
}

// Partition splits manifests into per-phase buckets, preserving input order
// within each bucket.
func Partition(manifests []Manifest) map[Phase][]Manifest {
	buckets := make(map[Phase][]Manifest, len(Phases()))

	for _, m := range manifests {
		phase := Classify(m)
		buckets[phase] = append(buckets[phase], m)
	}

	return buckets
}
