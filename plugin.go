package dataflow

import "fmt"

// Plugin is the base every component in the system embeds (§4.9). It gives a
// component a stable name and process-wide id, a handle back to the
// registry it was constructed with, and a logger — the minimum any plugin
// needs to look up services, open readers/writers, and report what it's
// doing. Unlike the source's plugin base, Plugin never participates in a
// dynamic-load lifecycle: Go binaries are statically linked, so there is no
// PLUGIN_MAIN-equivalent factory macro here, only ordinary constructors.
type Plugin struct {
	name     string
	id       uint64
	registry *Registry
	logger   Logger
	records  RecordLogger
}

// NewPlugin constructs the shared plugin base. id is drawn from guids in the
// global namespace so every plugin in a process gets a unique id regardless
// of construction order. It emits a PluginStartRecord immediately, matching
// the source's convention of logging __plugin_start_header as soon as a
// plugin has a name and an id.
func NewPlugin(name string, guids *GUIDGenerator, registry *Registry, logger Logger, records RecordLogger) *Plugin {
	if logger == nil {
		logger = noopLogger{}
	}
	if records == nil {
		records = NewCloudEventRecordLogger(nil, logger)
	}

	p := &Plugin{
		name:     name,
		id:       guids.Next(),
		registry: registry,
		logger:   logger,
		records:  records,
	}

	records.Log(RecordTypePluginStart, name, PluginStartRecord{PluginID: p.id, Name: name})
	p.logger.Info("plugin start", "plugin_id", p.id, "name", name)

	return p
}

// Name returns the plugin's name, as given at construction.
func (p *Plugin) Name() string { return p.name }

// ID returns the plugin's process-wide unique id.
func (p *Plugin) ID() uint64 { return p.id }

// Registry returns the service registry this plugin was constructed with.
func (p *Plugin) Registry() *Registry { return p.registry }

// Logger returns the plugin's logger.
func (p *Plugin) Logger() Logger { return p.logger }

// Records returns the plugin's record logger, for emitting diagnostic
// records beyond the automatic plugin-start record.
func (p *Plugin) Records() RecordLogger { return p.records }

// String renders the plugin as "name#id", so a multi-plugin process's
// diagnostics can name the exact instance that produced them.
func (p *Plugin) String() string {
	return fmt.Sprintf("%s#%d", p.name, p.id)
}
