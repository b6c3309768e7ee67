// Package kubectl wraps kubectl's embedded Cobra commands so manifest files
// can be applied in process without shelling out to an external binary.
package kubectl
