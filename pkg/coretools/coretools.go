// Package coretools ships the built-in tool catalog: filesystem access,
// search, sandboxed execution, web access and content generation. Each
// definition carries its aliases, capability requirements, parameter
// schema and rate policy; the concrete behavior is delegated to the
// Backends collaborators supplied by the host.
package coretools

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"toolgate/pkg/dispatch"
	"toolgate/pkg/tool"
)

// Definitions builds the full set of built-in tool definitions bound to
// the given backends. Nil backends are allowed; the affected tools stay
// registered but fail at execution time.
func Definitions(b Backends) []tool.Definition {
	return []tool.Definition{
		fileReaderTool(b.FS),
		fileWriterTool(b.FS),
		fileEditorTool(b.FS),
		directoryListerTool(b.FS),
		fileSearcherTool(b.FS),
		contentSearcherTool(b.FS),
		commandExecutorTool(b.Shell),
		codeExecutorTool(b.Code),
		webSearcherTool(b.Web),
		webFetcherTool(b.Web),
		documentGeneratorTool(b.Generator),
	}
}

// Register installs every built-in tool into the registry.
func Register(reg *dispatch.Registry, b Backends) error {
	if reg == nil {
		return errors.New("registry is required")
	}
	defs := Definitions(b)
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", def.Name, err)
		}
	}
	log.Info().Int("count", len(defs)).Msg("Core tools registered")
	return nil
}
