// Package kindprovisioner provisions local kind clusters through kind's
// embedded Cobra commands.
package kindprovisioner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/kubestrap/kubestrap/pkg/svc/cluster"
	"github.com/kubestrap/kubestrap/pkg/utils/runner"
	kindcmd "sigs.k8s.io/kind/pkg/cmd"
	createcluster "sigs.k8s.io/kind/pkg/cmd/kind/create/cluster"
	getclusters "sigs.k8s.io/kind/pkg/cmd/kind/get/clusters"
	"sigs.k8s.io/kind/pkg/log"
)

// streamLogger adapts an io.Writer to kind's logger interface so kind's
// console output is displayed in real time. Only info-level messages (V(0))
// are enabled to avoid verbose debug output.
type streamLogger struct {
	writer io.Writer
}

func (l *streamLogger) Warn(message string) {
	l.write(message)
}

func (l *streamLogger) Warnf(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Error(message string) {
	l.write(message)
}

func (l *streamLogger) Errorf(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Info(message string) {
	l.write(message)
}

func (l *streamLogger) Infof(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Enabled() bool {
	return true
}

func (l *streamLogger) V(level log.Level) log.InfoLogger {
	if level > 0 {
		return noopInfoLogger{}
	}

	return l
}

// noopInfoLogger discards verbose/debug messages (V(1) and higher).
type noopInfoLogger struct{}

func (noopInfoLogger) Info(string)          {}
func (noopInfoLogger) Infof(string, ...any) {}
func (noopInfoLogger) Enabled() bool        { return false }

func (l *streamLogger) write(message string) {
	if l == nil {
		return
	}

	if message == "" {
		_, _ = io.WriteString(l.writer, "\n")

		return
	}

	if strings.ContainsRune(message, '\r') || strings.HasSuffix(message, "\n") {
		_, _ = io.WriteString(l.writer, message)

		return
	}

	_, _ = io.WriteString(l.writer, message+"\n")
}

// Provisioner provisions kind clusters using kind's Cobra commands.
type Provisioner struct {
	runner runner.CommandRunner
	out    io.Writer
}

var _ cluster.Provisioner = (*Provisioner)(nil)

// NewProvisioner constructs a Provisioner writing kind output to stdout.
func NewProvisioner() *Provisioner {
	return NewProvisionerWithRunner(
		runner.NewCobraCommandRunner(os.Stdout, os.Stderr),
		os.Stdout,
	)
}

// NewProvisionerWithRunner constructs a Provisioner with an explicit command
// runner for testing purposes.
func NewProvisionerWithRunner(cmdRunner runner.CommandRunner, out io.Writer) *Provisioner {
	if out == nil {
		out = os.Stdout
	}

	return &Provisioner{runner: cmdRunner, out: out}
}

// Create creates a kind cluster using kind's Cobra command.
// Creating a cluster whose name already exists is the caller's concern;
// use Exists first for idempotent bring-up.
func (p *Provisioner) Create(ctx context.Context, name string) error {
	logger := &streamLogger{writer: p.out}

	streams := kindcmd.IOStreams{
		Out:    p.out,
		ErrOut: p.out,
	}

	cmd := createcluster.NewCommand(logger, streams)

	args := []string{"--name", name}

	_, err := p.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("failed to create kind cluster: %w", err)
	}

	return nil
}

// List returns all kind cluster names using kind's Cobra command.
func (p *Provisioner) List(ctx context.Context) ([]string, error) {
	// Capture output without displaying it.
	var outBuf bytes.Buffer

	logger := &streamLogger{writer: &outBuf}

	// Kind's getclusters command writes to streams.Out directly (via
	// fmt.Fprintln), not through cmd.SetOut(), so read from outBuf primarily.
	streams := kindcmd.IOStreams{
		Out:    &outBuf,
		ErrOut: io.Discard,
	}

	cmd := getclusters.NewCommand(logger, streams)

	result, err := p.runner.Run(ctx, cmd, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to list kind clusters: %w", err)
	}

	const noKindClustersMsg = "No kind clusters found."

	output := outBuf.Bytes()
	if len(output) == 0 {
		output = []byte(result.Stdout)
	}

	lines := bytes.Split(output, []byte("\n"))

	var clusters []string

	for _, line := range lines {
		name := string(bytes.TrimSpace(line))
		if name != "" && name != noKindClustersMsg {
			clusters = append(clusters, name)
		}
	}

	return clusters, nil
}

// Exists checks if a kind cluster with the given name exists.
func (p *Provisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := p.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list kind clusters: %w", err)
	}

	return slices.Contains(clusters, name), nil
}

// KubeContext returns the kubeconfig context name kind registers for a
// cluster of the given name.
func KubeContext(name string) string {
	return "kind-" + name
}
