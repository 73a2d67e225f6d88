package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maestrohq/maestro/pkg/autonomy"
	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/log"
)

// approvalHandler asks the operator on the terminal whether a gated
// deliverable may proceed. Anything other than yes rejects it.
type approvalHandler struct {
	in  *bufio.Reader
	out io.Writer
}

func newApprovalHandler() *approvalHandler {
	return &approvalHandler{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (h *approvalHandler) OnCheckpoint(_ context.Context, workerName, phase string, deliverable any) (bool, error) {
	fmt.Fprintf(h.out, "\nCheckpoint %q from %s:\n", phase, workerName)

	if payload, err := json.MarshalIndent(deliverable, "", "  "); err == nil {
		fmt.Fprintln(h.out, string(payload))
	} else {
		fmt.Fprintf(h.out, "%v\n", deliverable)
	}

	fmt.Fprint(h.out, "Approve? [y/N]: ")

	line, err := h.in.ReadString('\n')
	if err != nil {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes", nil
}

func newGate(cfg *config.Config) *autonomy.Gate {
	return autonomy.NewGate(cfg.AutonomyLevel(), newApprovalHandler(), log.WithModule("autonomy"))
}
