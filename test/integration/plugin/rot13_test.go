// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

//go:build integration

package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/driftchat/drift/internal/command"
	driftplugin "github.com/driftchat/drift/internal/plugin"
	"github.com/driftchat/drift/internal/plugin/capability"
	"github.com/driftchat/drift/internal/plugin/hostfunc"
	pluginlua "github.com/driftchat/drift/internal/plugin/lua"
)

// captureMessenger records every message the plugin host emits.
type captureMessenger struct {
	mu     sync.Mutex
	sent   [][2]string
	system [][2]string
}

func (m *captureMessenger) SendMessage(_ context.Context, channel, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, [2]string{channel, text})
	return nil
}

func (m *captureMessenger) SystemMessage(_ context.Context, channel, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.system = append(m.system, [2]string{channel, text})
	return nil
}

func (m *captureMessenger) snapshot() (sent, system [][2]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]string(nil), m.sent...), append([][2]string(nil), m.system...)
}

// repoRoot walks up from the working directory to the module root.
func repoRoot() string {
	dir, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		Expect(parent).NotTo(Equal(dir), "go.mod not found above working directory")
		dir = parent
	}
}

var _ = Describe("rot13 plugin", func() {
	var (
		ctx        context.Context
		messenger  *captureMessenger
		registry   *command.Registry
		manager    *driftplugin.Manager
		dispatcher *command.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		messenger = &captureMessenger{}
		registry = command.NewRegistry()
		enforcer := capability.NewEnforcer()

		host := pluginlua.NewHost(hostfunc.New(messenger, enforcer), registry, enforcer)
		manager = driftplugin.NewManager(filepath.Join(repoRoot(), "plugins"), host)

		var err error
		dispatcher, err = command.NewDispatcher(registry, messenger)
		Expect(err).NotTo(HaveOccurred())

		Expect(manager.LoadAll(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(manager.Close(ctx)).To(Succeed())
	})

	It("loads from the shipped plugins directory", func() {
		status, ok := manager.Status("rot13")
		Expect(ok).To(BeTrue())
		Expect(status).To(Equal(driftplugin.StatusEnabled))

		_, ok = registry.Get("/rot13")
		Expect(ok).To(BeTrue())
	})

	It("rotates a message and sends it to the channel", func() {
		words := command.SplitLine("/rot13 foo BAR")
		Expect(dispatcher.Dispatch(ctx, words, "general")).To(Succeed())

		sent, system := messenger.snapshot()
		Expect(system).To(BeEmpty())
		Expect(sent).To(HaveLen(1))
		Expect(sent[0][0]).To(Equal("general"))
		Expect(sent[0][1]).To(Equal("sbb ONE"))
	})

	It("round-trips through a double rotation", func() {
		Expect(dispatcher.Dispatch(ctx, []string{"/rot13", "hello"}, "general")).To(Succeed())
		sent, _ := messenger.snapshot()
		Expect(sent[0][1]).To(Equal("uryyb"))

		Expect(dispatcher.Dispatch(ctx, []string{"/rot13", sent[0][1]}, "general")).To(Succeed())
		sent, _ = messenger.snapshot()
		Expect(sent[1][1]).To(Equal("hello"))
	})

	It("prints usage for a bare invocation", func() {
		Expect(dispatcher.Dispatch(ctx, []string{"/rot13"}, "general")).To(Succeed())

		sent, system := messenger.snapshot()
		Expect(sent).To(BeEmpty())
		Expect(system).To(HaveLen(1))
		Expect(system[0][1]).To(ContainSubstring("Usage: /rot13"))
	})

	It("reports unknown commands upward", func() {
		err := dispatcher.Dispatch(ctx, []string{"/nope"}, "general")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown command"))
	})

	It("stops dispatching after the plugin is disabled and resumes on enable", func() {
		Expect(manager.Disable(ctx, "rot13")).To(Succeed())
		err := dispatcher.Dispatch(ctx, []string{"/rot13", "x"}, "general")
		Expect(err).To(HaveOccurred())

		Expect(manager.Enable(ctx, "rot13")).To(Succeed())
		Expect(dispatcher.Dispatch(ctx, []string{"/rot13", "x"}, "general")).To(Succeed())
		sent, _ := messenger.snapshot()
		Expect(sent).To(HaveLen(1))
		Expect(sent[0][1]).To(Equal("k"))
	})
})
