// Package gcloud shells out to the gcloud CLI for target-cluster status
// queries and kubeconfig credential activation. The gcloud binary owns the
// auth plugin exchange, so it is driven as an external command rather than
// reimplemented.
package gcloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
)

// StatusRunning is the GKE lifecycle state of a serving cluster.
const StatusRunning = "RUNNING"

// ErrIncompleteHandle is returned when a cluster handle misses the fields
// needed to address a GKE cluster.
var ErrIncompleteHandle = errors.New("cluster handle is missing name, location or project")

// runFunc executes a gcloud invocation and returns its stdout.
type runFunc func(ctx context.Context, args ...string) (string, error)

// Client drives the gcloud CLI.
type Client struct {
	run runFunc
	out io.Writer
}

// NewClient creates a Client writing gcloud stderr to out.
func NewClient(out io.Writer) *Client {
	if out == nil {
		out = os.Stderr
	}

	client := &Client{out: out}
	client.run = client.execGcloud

	return client
}

// NewClientWithRunner creates a Client with an explicit runner (for testing).
func NewClientWithRunner(run func(ctx context.Context, args ...string) (string, error)) *Client {
	return &Client{run: run, out: io.Discard}
}

// ClusterStatus returns the GKE lifecycle status string of the cluster
// (for example RUNNING or PROVISIONING).
func (c *Client) ClusterStatus(ctx context.Context, handle cluster.Handle) (string, error) {
	err := validateHandle(handle)
	if err != nil {
		return "", err
	}

	stdout, err := c.run(ctx,
		"container", "clusters", "describe", handle.Name,
		"--location", handle.Location,
		"--project", handle.Project,
		"--format", "value(status)",
	)
	if err != nil {
		return "", fmt.Errorf("describe cluster %s: %w", handle.Name, err)
	}

	return strings.TrimSpace(stdout), nil
}

// ActivateCredentials fetches the cluster's access credentials and makes its
// kubeconfig context the current one.
func (c *Client) ActivateCredentials(ctx context.Context, handle cluster.Handle) error {
	err := validateHandle(handle)
	if err != nil {
		return err
	}

	_, err = c.run(ctx,
		"container", "clusters", "get-credentials", handle.Name,
		"--location", handle.Location,
		"--project", handle.Project,
	)
	if err != nil {
		return fmt.Errorf("get credentials for cluster %s: %w", handle.Name, err)
	}

	return nil
}

// KubeContext returns the kubeconfig context name gcloud registers for the
// cluster.
func KubeContext(handle cluster.Handle) string {
	return fmt.Sprintf("gke_%s_%s_%s", handle.Project, handle.Location, handle.Name)
}

func validateHandle(handle cluster.Handle) error {
	if handle.Name == "" || handle.Location == "" || handle.Project == "" {
		return fmt.Errorf("%w: %+v", ErrIncompleteHandle, handle)
	}

	return nil
}

func (c *Client) execGcloud(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gcloud", args...)

	var stdout strings.Builder

	cmd.Stdout = &stdout
	cmd.Stderr = c.out

	err := cmd.Run()
	if err != nil {
		return stdout.String(), fmt.Errorf("gcloud %s: %w", strings.Join(args, " "), err)
	}

	return stdout.String(), nil
}
