// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("drift/command")

// ErrNilRegistry is returned by NewDispatcher when no registry is given.
var ErrNilRegistry = errors.New("command: registry is required")

// ErrNilMessenger is returned by NewDispatcher when no messenger is given.
var ErrNilMessenger = errors.New("command: messenger is required")

// Dispatcher routes tokenized command input to registered plugin handlers
// with strict failure containment: an error raised inside a handler is
// caught here, reported to the originating channel as a diagnostic, and
// never unwinds into the host's own control flow.
type Dispatcher struct {
	registry  *Registry
	messenger Messenger
}

// NewDispatcher creates a dispatcher over the given registry and messenger.
func NewDispatcher(registry *Registry, messenger Messenger) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if messenger == nil {
		return nil, ErrNilMessenger
	}
	return &Dispatcher{
		registry:  registry,
		messenger: messenger,
	}, nil
}

// Dispatch routes one command invocation. words is the already-tokenized
// input with the command token first; channel names the originating
// channel.
//
// Unknown commands are reported upward via UNKNOWN_COMMAND. Handler errors
// are contained: the dispatcher surfaces a diagnostic naming the plugin and
// message on the originating channel, records it, and returns nil — the
// owning instance stays enabled and every other command remains usable.
func (d *Dispatcher) Dispatch(ctx context.Context, words []string, channel string) error {
	if len(words) == 0 {
		return ErrEmptyDispatch()
	}
	name := words[0]
	start := time.Now()

	ctx, span := tracer.Start(ctx, "command.dispatch",
		trace.WithAttributes(
			attribute.String("command.name", name),
			attribute.String("command.channel", channel),
		),
	)
	defer span.End()

	entry, ok := d.registry.Get(name)
	if !ok {
		recordDispatch(name, "", StatusNotFound, start)
		err := ErrUnknownCommand(name)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("command.plugin", entry.Plugin))

	dctx := Context{
		Words:       append([]string(nil), words...),
		ChannelName: channel,
	}

	if err := entry.Handler.Invoke(ctx, dctx); err != nil {
		recordDispatch(name, entry.Plugin, StatusError, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.reportHandlerError(ctx, entry, channel, err)
		return nil
	}

	recordDispatch(name, entry.Plugin, StatusSuccess, start)
	return nil
}

// reportHandlerError surfaces a contained handler failure as a diagnostic
// on the originating channel and in the log.
func (d *Dispatcher) reportHandlerError(ctx context.Context, entry Entry, channel string, err error) {
	slog.WarnContext(ctx, "plugin handler failed",
		"command", entry.Name,
		"plugin", entry.Plugin,
		"channel", channel,
		"error", err,
	)

	diag := fmt.Sprintf("Plugin %q error in %s: %s", entry.Plugin, entry.Name, err.Error())
	if msgErr := d.messenger.SystemMessage(ctx, channel, diag); msgErr != nil {
		slog.ErrorContext(ctx, "failed to deliver handler diagnostic",
			"plugin", entry.Plugin,
			"channel", channel,
			"error", msgErr,
		)
	}
}
