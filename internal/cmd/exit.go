package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/ambientdeck/ambientdeck/internal/core/board"
	"github.com/ambientdeck/ambientdeck/internal/core/deck"
	"github.com/ambientdeck/ambientdeck/internal/core/store"
)

// ExitWithCode logs err with the foundry exit code metadata and exits.
// logger may be nil for failures before logging is initialized.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)

	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	if !ok {
		os.Exit(int(exitCode))
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}

// ExitCodeFor picks the semantic exit code for a failed command.
func ExitCodeFor(err error) foundry.ExitCode {
	var (
		limited   *board.RateLimitedError
		upstream  *board.UpstreamError
		transport *board.TransportError
	)
	switch {
	case stderrors.As(err, &limited),
		stderrors.As(err, &upstream),
		stderrors.As(err, &transport),
		stderrors.Is(err, context.DeadlineExceeded):
		return foundry.ExitExternalServiceUnavailable
	case stderrors.Is(err, deck.ErrMissingToken),
		stderrors.Is(err, store.ErrUnknownSetting):
		return foundry.ExitConfigInvalid
	case stderrors.Is(err, os.ErrNotExist):
		return foundry.ExitFileNotFound
	}
	return foundry.ExitFailure
}
