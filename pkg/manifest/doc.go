// Package manifest parses multi-document Kubernetes manifest files and
// classifies each document into an ordered rollout phase.
package manifest
