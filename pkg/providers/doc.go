// Package providers holds the upstream provider catalogue and its
// health monitoring.
//
// # Overview
//
// A Provider pairs the immutable identity of one upstream AI backend
// (name, base URL, credential, model list, static weight) with its live
// routing state (health status, blended response time, consecutive error
// count, last probe time). All upstreams speak the OpenAI chat
// completions protocol; the gateway does not translate payloads, only
// routes them, so there are no per-vendor adapters.
//
// The Registry is the fixed catalogue built once at startup from
// configuration. Providers are never added or removed at runtime; only
// their live state changes.
//
// # Live State
//
// Live state fields are individually atomic so the health monitor, the
// relay, and the selector can update and read them without locks:
//
//	p.SetStatus(providers.StatusHealthy)
//	p.AverageResponseTime(elapsed.Seconds()) // (old+new)/2 blend
//	p.IncrementErrors()                      // upstream failure
//	p.DecrementErrors()                      // success, floored at 0
//
// # Health Monitoring
//
// The Monitor probes every provider concurrently on a fixed interval
// with a minimal chat completion against the provider's default model.
// Probe outcomes drive the status, error count, and response time that
// weighted selection consumes:
//
//	registry := providers.NewRegistry(cfg.Providers)
//	monitor := providers.NewMonitor(registry, cfg.Health, collector)
//	monitor.Start(ctx)
//	defer monitor.Stop()
//
// A provider that fails its probe stays in the catalogue; selection
// degrades gracefully instead of hard-removing backends.
package providers
