// Package journal records rollout transitions in a SQLite database so that
// `rollctl rollout history --events` can show what happened after the fact.
//
// The schema is managed with embedded goose migrations. When no journal path is
// configured the controller uses Nop, which discards every event.
package journal
