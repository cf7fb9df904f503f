// control/aggregator.go
// Author: momentics <momentics@gmail.com>
//
// Aggregator composes ConfigStore, MetricsRegistry, DebugProbes and
// Recorder into the single object that satisfies api.Control and
// api.Debug, so the three previously standalone teacher stores gain an
// actual caller: evloop.Host wires one per loop thread and keeps its
// lifecycle metrics and recent-activity log behind it.

package control

// Aggregator is the Host-facing operator surface: config, metrics, debug
// probes and the recent-activity recorder behind one handle.
type Aggregator struct {
	Config   *ConfigStore
	Metrics  *MetricsRegistry
	Debug    *DebugProbes
	Recorder *Recorder
}

// NewAggregator wires a fresh Aggregator, registering the recorder's
// snapshot as a debug probe under "recent_events".
func NewAggregator(recorderCapacity int) *Aggregator {
	return NewAggregatorWithRecorder(NewRecorder(recorderCapacity))
}

// NewAggregatorWithRecorder wires an Aggregator around an existing
// Recorder, so a Host's lifecycle recorder and its operator-facing
// aggregator share the same event log instead of keeping two.
func NewAggregatorWithRecorder(rec *Recorder) *Aggregator {
	a := &Aggregator{
		Config:   NewConfigStore(),
		Metrics:  NewMetricsRegistry(),
		Debug:    NewDebugProbes(),
		Recorder: rec,
	}
	a.Debug.RegisterProbe("recent_events", a.Recorder.Probe)
	return a
}

// GetConfig satisfies api.Control.
func (a *Aggregator) GetConfig() map[string]any { return a.Config.GetSnapshot() }

// SetConfig satisfies api.Control.
func (a *Aggregator) SetConfig(cfg map[string]any) error {
	a.Config.SetConfig(cfg)
	return nil
}

// Stats satisfies api.Control.
func (a *Aggregator) Stats() map[string]any { return a.Metrics.GetSnapshot() }

// OnReload satisfies api.Control.
func (a *Aggregator) OnReload(fn func()) { a.Config.OnReload(fn) }

// RegisterDebugProbe satisfies api.Control and api.Debug.
func (a *Aggregator) RegisterDebugProbe(name string, fn func() any) {
	a.Debug.RegisterProbe(name, fn)
}

// DumpState satisfies api.Debug.
func (a *Aggregator) DumpState() map[string]any { return a.Debug.DumpState() }

// RegisterProbe satisfies api.Debug.
func (a *Aggregator) RegisterProbe(name string, fn func() any) { a.Debug.RegisterProbe(name, fn) }
