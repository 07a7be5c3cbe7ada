package publisher

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"jraargz/ofertasworker/internal/offer"
	"jraargz/ofertasworker/logger"
)

// ExecPublisher invokes the external affiliate link generator after the
// output artifact is written. The generator reads the artifact itself; the
// command string is split on whitespace, so interpreter invocations like
// "python3 generator.py" work.
type ExecPublisher struct {
	command string
	log     *logger.Logger
}

// NewExecPublisher creates a publisher that runs the given command.
func NewExecPublisher(command string) *ExecPublisher {
	return &ExecPublisher{
		command: command,
		log:     logger.ForPublisher(),
	}
}

// Publish runs the affiliate generator and logs its exit code and stderr.
// The configured command may carry arguments ("python3 generator.py").
func (p *ExecPublisher) Publish(ctx context.Context, category string, o offer.Offer) error {
	p.log.Info().Str("command", p.command).Msg("Starting affiliate link generator")

	argv := strings.Fields(p.command)
	if len(argv) == 0 {
		return fmt.Errorf("affiliate generator: empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.log.Error().
			Err(err).
			Str("stderr", stderr.String()).
			Msg("Affiliate link generator failed")
		return fmt.Errorf("affiliate generator: %w", err)
	}

	p.log.Info().Msg("Affiliate link generator completed")
	return nil
}

// Close is a no-op for process publishers.
func (p *ExecPublisher) Close() error {
	return nil
}
