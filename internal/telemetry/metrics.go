package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/orionpulse/orionpulse"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Tenant metrics
	WorkspaceResolutionsTotal metric.Int64Counter
	WorkspaceDenialsTotal     metric.Int64Counter
	WorkspaceBootstrapsTotal  metric.Int64Counter

	// Copilot metrics
	CopilotTurnsTotal          metric.Int64Counter
	CopilotEventsPersisted     metric.Int64Counter
	CopilotPersistFailures     metric.Int64Counter
	CopilotBindingRejections   metric.Int64Counter
	AgentInvocationsTotal      metric.Int64Counter
	AgentInvocationErrorsTotal metric.Int64Counter
	AgentInvocationDuration    metric.Float64Histogram

	// Connector metrics
	SyncJobsEnqueuedTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.WorkspaceResolutionsTotal, _ = meter.Int64Counter(
		"orionpulse.workspace.resolutions.total",
		metric.WithDescription("Total number of requests resolved to a workspace, by source"),
		metric.WithUnit("{request}"),
	)

	m.WorkspaceDenialsTotal, _ = meter.Int64Counter(
		"orionpulse.workspace.denials.total",
		metric.WithDescription("Total number of workspace resolutions refused"),
		metric.WithUnit("{request}"),
	)

	m.WorkspaceBootstrapsTotal, _ = meter.Int64Counter(
		"orionpulse.workspace.bootstraps.total",
		metric.WithDescription("Total number of default workspaces created"),
		metric.WithUnit("{workspace}"),
	)

	m.CopilotTurnsTotal, _ = meter.Int64Counter(
		"orionpulse.copilot.turns.total",
		metric.WithDescription("Total number of completed copilot turns"),
		metric.WithUnit("{turn}"),
	)

	m.CopilotEventsPersisted, _ = meter.Int64Counter(
		"orionpulse.copilot.events.persisted.total",
		metric.WithDescription("Total number of copilot events successfully persisted"),
		metric.WithUnit("{event}"),
	)

	m.CopilotPersistFailures, _ = meter.Int64Counter(
		"orionpulse.copilot.events.dropped.total",
		metric.WithDescription("Total number of copilot events not persisted due to errors"),
		metric.WithUnit("{event}"),
	)

	m.CopilotBindingRejections, _ = meter.Int64Counter(
		"orionpulse.copilot.binding_rejections.total",
		metric.WithDescription("Total number of copilot requests refused for targeting another workspace"),
		metric.WithUnit("{request}"),
	)

	m.AgentInvocationsTotal, _ = meter.Int64Counter(
		"orionpulse.agent.invocations.total",
		metric.WithDescription("Total number of agent invocations"),
		metric.WithUnit("{call}"),
	)

	m.AgentInvocationErrorsTotal, _ = meter.Int64Counter(
		"orionpulse.agent.invocations.errors.total",
		metric.WithDescription("Total number of agent invocations that fell back to a fixed message"),
		metric.WithUnit("{error}"),
	)

	m.AgentInvocationDuration, _ = meter.Float64Histogram(
		"orionpulse.agent.invocations.duration",
		metric.WithDescription("Duration of agent invocations"),
		metric.WithUnit("ms"),
	)

	m.SyncJobsEnqueuedTotal, _ = meter.Int64Counter(
		"orionpulse.sync.jobs.enqueued.total",
		metric.WithDescription("Total number of connector sync jobs enqueued"),
		metric.WithUnit("{job}"),
	)

	return m
}
